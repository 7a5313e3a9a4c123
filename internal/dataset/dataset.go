// Package dataset loads input datasets from local files or the Hugging Face
// hub and persists generated records as parquet.
package dataset

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/completionist-ai/completionist/internal/hub"
)

// Row is one input record: a mapping of field name to value.
type Row = map[string]any

// ShuffleSeed fixes the shuffle order so shuffled runs are reproducible and
// resumable.
const ShuffleSeed = 42

// Dataset is an ordered, sliceable sequence of rows.
type Dataset struct {
	rows []Row
}

// FromRows wraps an existing row slice.
func FromRows(rows []Row) *Dataset {
	return &Dataset{rows: rows}
}

// Load reads a dataset by local path or hub name. Local `.jsonl` files hold
// one JSON object per line; `.txt` files hold one value per line stored
// under requiredField. Anything else is treated as a hub dataset name and
// resolved through its auto-converted parquet shards. The requiredField must
// exist on the first row.
func Load(ctx context.Context, client *hub.Client, nameOrPath, split, requiredField string) (*Dataset, error) {
	var (
		rows []Row
		err  error
	)
	switch strings.ToLower(filepath.Ext(nameOrPath)) {
	case ".jsonl":
		rows, err = loadJSONL(nameOrPath)
	case ".txt":
		rows, err = loadText(nameOrPath, requiredField)
	default:
		rows, err = loadHub(ctx, client, nameOrPath, split)
	}
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("dataset %q is empty", nameOrPath)
	}
	if requiredField != "" {
		if _, ok := rows[0][requiredField]; !ok {
			return nil, fmt.Errorf("dataset %q has no %q feature", nameOrPath, requiredField)
		}
	}
	return &Dataset{rows: rows}, nil
}

// Len returns the number of rows.
func (d *Dataset) Len() int {
	return len(d.rows)
}

// Rows returns the backing rows. Callers must not mutate them.
func (d *Dataset) Rows() []Row {
	return d.rows
}

// Shuffle permutes the rows deterministically with the given seed.
func (d *Dataset) Shuffle(seed int64) {
	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(len(d.rows), func(i, j int) {
		d.rows[i], d.rows[j] = d.rows[j], d.rows[i]
	})
}

// Limit truncates the dataset to at most n rows.
func (d *Dataset) Limit(n int) {
	if n > 0 && n < len(d.rows) {
		d.rows = d.rows[:n]
	}
}

// Slice returns the rows from index from onward, used to skip items already
// completed in a prior run.
func (d *Dataset) Slice(from int) []Row {
	if from >= len(d.rows) {
		return nil
	}
	if from < 0 {
		from = 0
	}
	return d.rows[from:]
}

// LoadExisting reads a previous output file for resumption. It returns the
// prior results and their count as the resume offset. Any corruption
// degrades to starting from scratch rather than failing the run.
func LoadExisting(outputFile string) ([]Row, int) {
	if _, err := os.Stat(outputFile); err != nil {
		return nil, 0
	}

	log.Info().Str("file", outputFile).Msg("resuming from existing file")
	rows, err := ReadRows(outputFile)
	if err != nil {
		log.Warn().Err(err).Msg("could not load existing output file; starting from scratch")
		return nil, 0
	}
	return rows, len(rows)
}

// LoadTopics reads a topics file: one topic per line, blank lines skipped.
func LoadTopics(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open topics file: %w", err)
	}
	defer f.Close()

	var topics []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			topics = append(topics, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read topics file: %w", err)
	}
	return topics, nil
}

func loadJSONL(path string) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error loading dataset: %w", err)
	}
	defer f.Close()

	var rows []Row
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 1024*1024), 16*1024*1024)
	for lineNo := 1; scanner.Scan(); lineNo++ {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var row Row
		if err := json.Unmarshal([]byte(line), &row); err != nil {
			return nil, fmt.Errorf("error loading dataset: %s line %d: %w", path, lineNo, err)
		}
		rows = append(rows, row)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error loading dataset: %w", err)
	}
	return rows, nil
}

func loadText(path, field string) ([]Row, error) {
	if field == "" {
		return nil, fmt.Errorf("a prompt input field is required to load a .txt dataset")
	}
	lines, err := LoadTopics(path)
	if err != nil {
		return nil, fmt.Errorf("error loading dataset: %w", err)
	}
	rows := make([]Row, len(lines))
	for i, line := range lines {
		rows[i] = Row{field: line}
	}
	return rows, nil
}

func loadHub(ctx context.Context, client *hub.Client, datasetID, split string) ([]Row, error) {
	urls, err := client.ParquetURLs(ctx, datasetID, split)
	if err != nil {
		return nil, fmt.Errorf("error loading dataset: %w", err)
	}

	var rows []Row
	for _, url := range urls {
		path, err := client.Download(ctx, url)
		if err != nil {
			return nil, fmt.Errorf("error loading dataset: %w", err)
		}
		shard, err := ReadRows(path)
		os.Remove(path)
		if err != nil {
			return nil, fmt.Errorf("error loading dataset: %w", err)
		}
		rows = append(rows, shard...)
	}
	return rows, nil
}
