package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/rs/zerolog/log"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/viper"

	"github.com/completionist-ai/completionist/internal/dataset"
	"github.com/completionist-ai/completionist/internal/hub"
	"github.com/completionist-ai/completionist/internal/provider"
	"github.com/completionist-ai/completionist/internal/provider/anthropic"
	"github.com/completionist-ai/completionist/internal/provider/openai"
	"github.com/completionist-ai/completionist/internal/style"
)

// GenerationResult summarizes one generation run for the final report.
type GenerationResult struct {
	Command    string        `json:"command" yaml:"command"`
	Model      string        `json:"model" yaml:"model"`
	Requested  int           `json:"requested" yaml:"requested"`
	Generated  int           `json:"generated" yaml:"generated"`
	Saved      int           `json:"saved" yaml:"saved"`
	OutputFile string        `json:"output_file" yaml:"output_file"`
	Pushed     bool          `json:"pushed" yaml:"pushed"`
	RepoID     string        `json:"repo_id,omitempty" yaml:"repo_id,omitempty"`
	Duration   time.Duration `json:"duration" yaml:"duration"`
}

// signalContext returns a context that is cancelled on SIGINT/SIGTERM so an
// interrupted run drains its workers and still persists partial output.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Info().Msg("received interrupt signal, shutting down gracefully")
		fmt.Fprintln(os.Stderr, "\nInterrupted. Shutting down workers and saving progress...")
		cancel()
	}()

	return ctx, cancel
}

// newProvider builds the completion client for a run. Token resolution order:
// explicit --api-token, then provider-specific environment variables, with
// the hub token mandatory for managed inference endpoints.
func newProvider(name, apiURL string, apiURLSet bool, apiToken, hubToken string) (provider.Provider, error) {
	switch name {
	case "openai":
		if apiToken == "" {
			apiToken = firstEnv("OPENAI_API_TOKEN", "OPENAI_API_KEY")
		}
		token, err := provider.ResolveAPIToken(apiURL, hubToken, apiToken)
		if err != nil {
			return nil, err
		}
		return openai.NewProvider(&provider.Config{BaseURL: apiURL, APIToken: token})
	case "anthropic":
		if apiToken == "" {
			apiToken = os.Getenv("ANTHROPIC_API_KEY")
		}
		config := &provider.Config{APIToken: apiToken}
		if apiURLSet {
			config.BaseURL = apiURL
		}
		return anthropic.NewProvider(config)
	default:
		return nil, fmt.Errorf("unknown provider %q (available: openai, anthropic)", name)
	}
}

func firstEnv(names ...string) string {
	for _, name := range names {
		if value := os.Getenv(name); value != "" {
			return value
		}
	}
	return ""
}

// newProgress wires the runner's progress callback to a terminal bar. The
// bar starts at the resume offset so resumed runs display true overall
// progress. In quiet or non-text mode the callback is nil. The returned
// finish func closes out the bar once the run returns, whether it completed
// or was interrupted, so the summary starts on a clean line.
func newProgress(description string, offset, total int) (func(completed, total int), func()) {
	if viper.GetBool("quiet") || viper.GetString("output") != "text" {
		return nil, func() {}
	}

	bar := progressbar.NewOptions(total,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "█",
			SaucerPadding: "░",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
	_ = bar.Set(offset)

	return func(completed, total int) {
			_ = bar.Set(completed)
		}, func() {
			// Exit keeps the rendered state; Finish would fake a full bar
			// on an interrupted run.
			_ = bar.Exit()
			fmt.Println()
		}
}

// readFileContent reads an optional prompt file; an empty path yields an
// empty string.
func readFileContent(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("error reading file %s: %w", path, err)
	}
	return string(content), nil
}

// saveAndPush persists the collected records locally and, when requested,
// pushes the file to the hub. The two steps fail independently: a push
// failure never discards the local file, and an identity failure aborts
// before any upload bytes are wasted. It runs on its own context rather
// than the run's: the run context is already cancelled when the user
// interrupted the run, and partial results must still be uploadable.
func saveAndPush(results []dataset.Row, outputFile string, push bool, repoID string, client *hub.Client) (saved, pushed bool) {
	if err := dataset.WriteResults(outputFile, results); err != nil {
		Error(fmt.Sprintf("Error saving dataset locally: %v", err))
	} else {
		saved = true
		Success(fmt.Sprintf("Generated dataset saved locally to %s", style.FileStyle.Render(outputFile)))
	}

	if !push {
		return saved, false
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	user, err := client.WhoAmI(ctx)
	if err != nil {
		Error(fmt.Sprintf("You must be logged in to push a dataset: %v", err))
		Error("Please run `huggingface-cli login` or set the HF_TOKEN environment variable and try again.")
		os.Exit(1)
	}
	log.Info().Str("user", user).Str("repo", repoID).Msg("pushing dataset to the hub")

	s := spinner.New(spinner.CharSets[9], 100*time.Millisecond)
	s.Suffix = fmt.Sprintf(" Pushing dataset to the Hugging Face Hub as %s...", repoID)
	if !viper.GetBool("quiet") && viper.GetString("output") == "text" {
		s.Start()
	}
	defer s.Stop()

	if err := client.EnsureDatasetRepo(ctx, repoID); err != nil {
		s.Stop()
		Error(fmt.Sprintf("Error pushing dataset to the Hub: %v", err))
		return saved, false
	}
	if err := client.UploadFile(ctx, repoID, outputFile, "data/"+filepath.Base(outputFile), "Upload generated dataset"); err != nil {
		s.Stop()
		Error(fmt.Sprintf("Error pushing dataset to the Hub: %v", err))
		return saved, false
	}

	s.Stop()
	Success("Successfully pushed dataset to the Hugging Face Hub!")
	return saved, true
}

// reportResult prints the final run summary in the selected output format.
func reportResult(result GenerationResult) {
	switch viper.GetString("output") {
	case "json":
		printJSON(result)
	case "yaml":
		printYAML(result)
	default:
		if viper.GetBool("quiet") {
			return
		}
		bold := color.New(color.Bold)
		fmt.Printf("\n%s Generated %s of %s samples in %.2fs\n",
			style.SuccessIcon(),
			bold.Sprintf("%d", result.Generated),
			bold.Sprintf("%d", result.Requested),
			result.Duration.Seconds())
		if result.Pushed {
			fmt.Printf("%s Dataset available at %s\n",
				style.InfoIcon(),
				style.FileStyle.Render("https://huggingface.co/datasets/"+result.RepoID))
		}
	}
}
