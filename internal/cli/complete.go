package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/completionist-ai/completionist/internal/dataset"
	"github.com/completionist-ai/completionist/internal/generate"
	"github.com/completionist-ai/completionist/internal/hub"
	"github.com/completionist-ai/completionist/internal/runner"
)

// completeCmd represents the complete command
var completeCmd = &cobra.Command{
	Use:   "complete",
	Short: "Generate text completions for a dataset using an LLM",
	Long: `Generate a completion for every prompt of a dataset.

The dataset can be a Hugging Face dataset name, a local .jsonl file or a
local .txt file (one prompt per line). If the output file already exists the
run resumes, processing only the items that are not yet completed.

Examples:
  completionist complete --dataset-name tatsu-lab/alpaca --prompt-input-field instruction \
    --model-name llama3 --output-file output.parquet
  completionist complete --dataset-name prompts.jsonl --prompt-input-field q \
    --model-name llama3 --output-file output.parquet --workers 8 --shuffle`,
	Run: func(cmd *cobra.Command, args []string) {
		runComplete(cmd)
	},
}

var completeOpts struct {
	datasetName           string
	outputFile            string
	modelName             string
	apiURL                string
	providerName          string
	apiToken              string
	split                 string
	systemPrompt          string
	systemPromptFile      string
	promptTemplateFile    string
	maxTokens             int
	limit                 int
	shuffle               bool
	pushToHub             bool
	hfRepoID              string
	workers               int
	promptInputField      string
	promptOutputField     string
	completionOutputField string
	temperature           float64
	topP                  float64
}

func init() {
	rootCmd.AddCommand(completeCmd)

	flags := completeCmd.Flags()
	flags.StringVar(&completeOpts.datasetName, "dataset-name", "", "Hugging Face dataset name or local .jsonl/.txt path")
	flags.StringVar(&completeOpts.outputFile, "output-file", "", "path to save the generated dataset (e.g. output.parquet)")
	flags.StringVar(&completeOpts.modelName, "model-name", "", "name of the model to use for generation")
	flags.StringVar(&completeOpts.apiURL, "api-url", "http://localhost:11434/v1", "API endpoint URL for the LLM (defaults to Ollama's OpenAI-compatible endpoint)")
	flags.StringVar(&completeOpts.providerName, "provider", "openai", "completion API flavor (openai, anthropic)")
	flags.StringVar(&completeOpts.apiToken, "api-token", "", "API token for the endpoint (defaults to provider-specific environment variables)")
	flags.StringVar(&completeOpts.split, "split", "train", "dataset split to use for hub datasets")
	flags.StringVar(&completeOpts.systemPrompt, "system-prompt", "", "system prompt to prepend to each user prompt (mutually exclusive with --system-prompt-file)")
	flags.StringVar(&completeOpts.systemPromptFile, "system-prompt-file", "", "path to a file containing the system prompt (mutually exclusive with --system-prompt)")
	flags.StringVar(&completeOpts.promptTemplateFile, "prompt-template-file", "", "path to a prompt template; {column} placeholders are filled from dataset columns")
	flags.IntVar(&completeOpts.maxTokens, "max-tokens", 2048, "maximum number of tokens to generate per completion")
	flags.IntVar(&completeOpts.limit, "limit", 0, "limit the number of samples to process")
	flags.BoolVar(&completeOpts.shuffle, "shuffle", false, "shuffle the dataset before processing")
	flags.BoolVar(&completeOpts.pushToHub, "push-to-hub", false, "push the generated dataset to the Hugging Face Hub")
	flags.StringVar(&completeOpts.hfRepoID, "hf-repo-id", "", "Hugging Face repository ID to push to (e.g. 'your-user/your-dataset'); required with --push-to-hub")
	flags.IntVar(&completeOpts.workers, "workers", 4, "number of concurrent requests to make to the API")
	flags.StringVar(&completeOpts.promptInputField, "prompt-input-field", "", "name of the input dataset field to use as the prompt")
	flags.StringVar(&completeOpts.promptOutputField, "prompt-output-field", "prompt", "output field to store the original prompt")
	flags.StringVar(&completeOpts.completionOutputField, "completion-output-field", "completion", "output field to store the generated completion")
	flags.Float64Var(&completeOpts.temperature, "temperature", 0.7, "sampling temperature for generation")
	flags.Float64Var(&completeOpts.topP, "top-p", 0.95, "nucleus sampling (top-p) for generation")

	_ = completeCmd.MarkFlagRequired("dataset-name")
	_ = completeCmd.MarkFlagRequired("output-file")
	_ = completeCmd.MarkFlagRequired("model-name")
	_ = completeCmd.MarkFlagRequired("prompt-input-field")
}

func runComplete(cmd *cobra.Command) {
	startTime := time.Now()
	opts := &completeOpts

	if opts.systemPrompt != "" && opts.systemPromptFile != "" {
		fatal("--system-prompt and --system-prompt-file are mutually exclusive.")
	}
	if opts.pushToHub && opts.hfRepoID == "" {
		fatal("--hf-repo-id is required when --push-to-hub is used.")
	}
	if opts.workers < 1 {
		fatal("--workers must be at least 1.")
	}

	systemPrompt := opts.systemPrompt
	if opts.systemPromptFile != "" {
		content, err := readFileContent(opts.systemPromptFile)
		if err != nil {
			fatal(err.Error())
		}
		systemPrompt = content
	}
	promptTemplate, err := readFileContent(opts.promptTemplateFile)
	if err != nil {
		fatal(err.Error())
	}

	hubToken := hub.Token()
	hubClient := hub.NewClient(hubToken)

	prov, err := newProvider(opts.providerName, opts.apiURL, cmd.Flags().Changed("api-url"), opts.apiToken, hubToken)
	if err != nil {
		fatal(err.Error())
	}

	ctx, cancel := signalContext()
	defer cancel()

	ds, err := dataset.Load(ctx, hubClient, opts.datasetName, opts.split, opts.promptInputField)
	if err != nil {
		fatal(err.Error())
	}
	if opts.shuffle {
		ds.Shuffle(dataset.ShuffleSeed)
	}
	ds.Limit(opts.limit)

	existing, resumeOffset := dataset.LoadExisting(opts.outputFile)
	if resumeOffset > 0 {
		Info(fmt.Sprintf("Found %d existing completions. Resuming from index %d.", resumeOffset, resumeOffset))
	}
	remaining := ds.Slice(resumeOffset)

	cfg := &generate.Config{
		Provider:              prov,
		Model:                 opts.modelName,
		SystemPrompt:          systemPrompt,
		MaxTokens:             opts.maxTokens,
		Temperature:           opts.temperature,
		TopP:                  opts.topP,
		PromptTemplate:        promptTemplate,
		PromptInputField:      opts.promptInputField,
		PromptOutputField:     opts.promptOutputField,
		CompletionOutputField: opts.completionOutputField,
	}

	fmt.Printf("Starting completion generation for %d samples (out of %d) with %d workers...\n",
		len(remaining), ds.Len(), opts.workers)

	progress, finishProgress := newProgress("Generating completions", resumeOffset, ds.Len())
	newResults := runner.Run(ctx, remaining, generate.CompleteHandler(cfg), runner.Options{
		Workers:    opts.workers,
		Offset:     resumeOffset,
		Total:      ds.Len(),
		OnProgress: progress,
	})
	finishProgress()

	if len(newResults) == 0 {
		Warning("No completions were generated.")
		return
	}

	all := append(existing, newResults...)
	saved, pushed := saveAndPush(all, opts.outputFile, opts.pushToHub, opts.hfRepoID, hubClient)

	result := GenerationResult{
		Command:    "complete",
		Model:      opts.modelName,
		Requested:  ds.Len(),
		Generated:  len(newResults),
		OutputFile: opts.outputFile,
		Pushed:     pushed,
		RepoID:     opts.hfRepoID,
		Duration:   time.Since(startTime),
	}
	if saved {
		result.Saved = len(all)
	}
	reportResult(result)
}
