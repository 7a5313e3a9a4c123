// Package hub talks to the Hugging Face hub: token discovery, identity
// checks, remote dataset parquet listings and commit-based uploads.
package hub

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// DefaultEndpoint is the public Hugging Face hub.
const DefaultEndpoint = "https://huggingface.co"

// Client is a thin hub API client. A zero token is fine for public reads;
// uploads and whoami require one.
type Client struct {
	endpoint string
	token    string
	http     *http.Client
}

// NewClient creates a hub client for the public endpoint.
func NewClient(token string) *Client {
	return NewClientAt(DefaultEndpoint, token)
}

// NewClientAt creates a hub client against a custom endpoint.
func NewClientAt(endpoint, token string) *Client {
	return &Client{
		endpoint: strings.TrimRight(endpoint, "/"),
		token:    token,
		// Parquet shards can be large, so the timeout is generous.
		http: &http.Client{Timeout: 10 * time.Minute},
	}
}

// Token discovers the hub token the way the huggingface-cli does: HF_TOKEN,
// then HUGGING_FACE_HUB_TOKEN, then the cached login token.
func Token() string {
	for _, env := range []string{"HF_TOKEN", "HUGGING_FACE_HUB_TOKEN"} {
		if token := os.Getenv(env); token != "" {
			return token
		}
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	raw, err := os.ReadFile(filepath.Join(home, ".cache", "huggingface", "token"))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(raw))
}

// HasToken reports whether the client can authenticate.
func (c *Client) HasToken() bool {
	return c.token != ""
}

// WhoAmI verifies the token and returns the account name. Callers treat a
// failure as fatal before attempting any upload.
func (c *Client) WhoAmI(ctx context.Context) (string, error) {
	if c.token == "" {
		return "", fmt.Errorf("not logged in: run `huggingface-cli login` or set HF_TOKEN")
	}

	var identity struct {
		Name string `json:"name"`
	}
	if err := c.getJSON(ctx, c.endpoint+"/api/whoami-v2", &identity); err != nil {
		return "", fmt.Errorf("failed to verify hub identity: %w", err)
	}
	return identity.Name, nil
}

// EnsureDatasetRepo creates the dataset repository if it does not exist.
func (c *Client) EnsureDatasetRepo(ctx context.Context, repoID string) error {
	payload := map[string]any{
		"type": "dataset",
		"name": repoID,
	}
	if owner, name, ok := strings.Cut(repoID, "/"); ok {
		payload["organization"] = owner
		payload["name"] = name
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/api/repos/create", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to create dataset repo %q: %w", repoID, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated, http.StatusConflict:
		// Conflict means the repo already exists, which is fine.
		return nil
	default:
		return fmt.Errorf("failed to create dataset repo %q: %s", repoID, responseError(resp))
	}
}

// UploadFile commits a single local file to the dataset repository using the
// NDJSON commit API.
func (c *Client) UploadFile(ctx context.Context, repoID, localPath, pathInRepo, message string) error {
	content, err := os.ReadFile(localPath)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", localPath, err)
	}

	var body bytes.Buffer
	encoder := json.NewEncoder(&body)
	_ = encoder.Encode(map[string]any{
		"key":   "header",
		"value": map[string]string{"summary": message},
	})
	_ = encoder.Encode(map[string]any{
		"key": "file",
		"value": map[string]string{
			"path":     pathInRepo,
			"content":  base64.StdEncoding.EncodeToString(content),
			"encoding": "base64",
		},
	})

	url := fmt.Sprintf("%s/api/datasets/%s/commit/main", c.endpoint, repoID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-ndjson")
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to push to %q: %w", repoID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to push to %q: %s", repoID, responseError(resp))
	}

	log.Info().
		Str("repo", repoID).
		Str("path", pathInRepo).
		Msg("uploaded file to the hub")
	return nil
}

// ParquetURLs lists the auto-converted parquet shards of a hub dataset
// split.
func (c *Client) ParquetURLs(ctx context.Context, datasetID, split string) ([]string, error) {
	url := fmt.Sprintf("%s/api/datasets/%s/parquet/default/%s", c.endpoint, datasetID, split)

	var urls []string
	if err := c.getJSON(ctx, url, &urls); err != nil {
		return nil, fmt.Errorf("failed to list parquet files for dataset %q: %w", datasetID, err)
	}
	if len(urls) == 0 {
		return nil, fmt.Errorf("dataset %q has no %s split", datasetID, split)
	}
	return urls, nil
}

// Download fetches a hub file into a temporary local file and returns its
// path. The caller owns the file.
func (c *Client) Download(ctx context.Context, url string) (string, error) {
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to download %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to download %s: status code %d", url, resp.StatusCode)
	}

	f, err := os.CreateTemp("", "completionist-*.parquet")
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("failed to write %s: %w", f.Name(), err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", err
	}

	log.Debug().
		Str("url", url).
		Dur("took", time.Since(start)).
		Msg("download complete")
	return f.Name(), nil
}

func (c *Client) getJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s", responseError(resp))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) authorize(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}

func responseError(resp *http.Response) string {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	var apiErr struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &apiErr) == nil && apiErr.Error != "" {
		return fmt.Sprintf("status %d: %s", resp.StatusCode, apiErr.Error)
	}
	return fmt.Sprintf("status %d", resp.StatusCode)
}
