package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/completionist-ai/completionist/internal/dataset"
	"github.com/completionist-ai/completionist/internal/generate"
	"github.com/completionist-ai/completionist/internal/hub"
	"github.com/completionist-ai/completionist/internal/provider"
	"github.com/completionist-ai/completionist/internal/runner"
	"github.com/completionist-ai/completionist/internal/schema"
)

// buildCmd represents the build command
var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Generate a structured dataset from a list of topics",
	Long: `Generate schema-validated samples from a list of seed topics.

Each topic is expanded into --num-samples generation tasks. The model is
instructed to answer with a JSON object matching the selected output schema,
and responses that do not validate are dropped.

Examples:
  completionist build --topics-file topics.txt --num-samples 10 \
    --system-prompt-file system.txt --user-prompt-template-file template.txt \
    --model-name llama3 --output-file samples.parquet
  completionist build --schema with-reasoning --topics-file topics.txt ...`,
	Run: func(cmd *cobra.Command, args []string) {
		runBuild(cmd)
	},
}

var buildOpts struct {
	schemaName             string
	topicsFile             string
	systemPromptFile       string
	userPromptTemplateFile string
	numSamples             int
	outputFile             string
	modelName              string
	apiURL                 string
	providerName           string
	apiToken               string
	workers                int
	pushToHub              bool
	hfRepoID               string
	maxTokens              int
	temperature            float64
	topP                   float64
}

func init() {
	rootCmd.AddCommand(buildCmd)

	flags := buildCmd.Flags()
	flags.StringVar(&buildOpts.schemaName, "schema", "default", "name of the output schema to generate against")
	flags.StringVar(&buildOpts.topicsFile, "topics-file", "", "path to a text file with one topic per line to seed generation")
	flags.StringVar(&buildOpts.systemPromptFile, "system-prompt-file", "", "path to a file containing the system prompt")
	flags.StringVar(&buildOpts.userPromptTemplateFile, "user-prompt-template-file", "", "path to a prompt template file; must contain a {topic} placeholder")
	flags.IntVar(&buildOpts.numSamples, "num-samples", 0, "number of samples to generate for each topic")
	flags.StringVar(&buildOpts.outputFile, "output-file", "", "path to save the generated dataset (e.g. output.parquet)")
	flags.StringVar(&buildOpts.modelName, "model-name", "", "name of the model to use for generation")
	flags.StringVar(&buildOpts.apiURL, "api-url", "http://localhost:11434/v1", "API endpoint URL for the LLM (defaults to Ollama's OpenAI-compatible endpoint)")
	flags.StringVar(&buildOpts.providerName, "provider", "openai", "completion API flavor (openai, anthropic)")
	flags.StringVar(&buildOpts.apiToken, "api-token", "", "API token for the endpoint (defaults to provider-specific environment variables)")
	flags.IntVar(&buildOpts.workers, "workers", 4, "number of concurrent requests to make to the API")
	flags.BoolVar(&buildOpts.pushToHub, "push-to-hub", false, "push the generated dataset to the Hugging Face Hub")
	flags.StringVar(&buildOpts.hfRepoID, "hf-repo-id", "", "Hugging Face repository ID to push to; required with --push-to-hub")
	flags.IntVar(&buildOpts.maxTokens, "max-tokens", 2048, "maximum number of tokens to generate per sample")
	flags.Float64Var(&buildOpts.temperature, "temperature", 0.7, "sampling temperature for generation")
	flags.Float64Var(&buildOpts.topP, "top-p", 0.95, "nucleus sampling (top-p) for generation")

	_ = buildCmd.MarkFlagRequired("topics-file")
	_ = buildCmd.MarkFlagRequired("system-prompt-file")
	_ = buildCmd.MarkFlagRequired("user-prompt-template-file")
	_ = buildCmd.MarkFlagRequired("num-samples")
	_ = buildCmd.MarkFlagRequired("output-file")
	_ = buildCmd.MarkFlagRequired("model-name")
}

func runBuild(cmd *cobra.Command) {
	startTime := time.Now()
	opts := &buildOpts

	if opts.pushToHub && opts.hfRepoID == "" {
		fatal("--hf-repo-id is required when --push-to-hub is used.")
	}
	if opts.numSamples < 1 {
		fatal("--num-samples must be at least 1.")
	}
	if opts.workers < 1 {
		fatal("--workers must be at least 1.")
	}

	def, err := schema.Resolve(opts.schemaName)
	if err != nil {
		fatal(err.Error())
	}

	topics, err := dataset.LoadTopics(opts.topicsFile)
	if err != nil {
		fatal(err.Error())
	}
	if len(topics) == 0 {
		fatal(fmt.Sprintf("Topics file %q is empty or contains no valid lines.", opts.topicsFile))
	}

	systemPrompt, err := readFileContent(opts.systemPromptFile)
	if err != nil {
		fatal(err.Error())
	}
	userPromptTemplate, err := readFileContent(opts.userPromptTemplateFile)
	if err != nil {
		fatal(err.Error())
	}
	if !generate.HasPlaceholder(userPromptTemplate, "topic") {
		fatal(fmt.Sprintf("The user prompt template must contain a {topic} placeholder.\nFile checked: %s\nContent starts with: %q",
			opts.userPromptTemplateFile, provider.TruncatePrompt(userPromptTemplate, 200)))
	}

	hubToken := hub.Token()
	hubClient := hub.NewClient(hubToken)

	prov, err := newProvider(opts.providerName, opts.apiURL, cmd.Flags().Changed("api-url"), opts.apiToken, hubToken)
	if err != nil {
		fatal(err.Error())
	}

	cfg := &generate.Config{
		Provider:           prov,
		Model:              opts.modelName,
		SystemPrompt:       systemPrompt,
		MaxTokens:          opts.maxTokens,
		Temperature:        opts.temperature,
		TopP:               opts.topP,
		UserPromptTemplate: userPromptTemplate,
		Schema:             def,
	}

	handler, err := generate.BuildHandler(cfg)
	if err != nil {
		fatal(err.Error())
	}

	// One task per topic per requested sample.
	tasks := make([]string, 0, len(topics)*opts.numSamples)
	for _, topic := range topics {
		for i := 0; i < opts.numSamples; i++ {
			tasks = append(tasks, topic)
		}
	}

	ctx, cancel := signalContext()
	defer cancel()

	fmt.Printf("Starting structured data generation for %d samples (%d per topic) with %d workers...\n",
		len(tasks), opts.numSamples, opts.workers)

	progress, finishProgress := newProgress("Generating samples", 0, len(tasks))
	samples := runner.Run(ctx, tasks, handler, runner.Options{
		Workers:    opts.workers,
		OnProgress: progress,
	})
	finishProgress()

	if len(samples) == 0 {
		Warning("No samples were generated.")
		return
	}

	saved, pushed := saveAndPush(samples, opts.outputFile, opts.pushToHub, opts.hfRepoID, hubClient)

	result := GenerationResult{
		Command:    "build",
		Model:      opts.modelName,
		Requested:  len(tasks),
		Generated:  len(samples),
		OutputFile: opts.outputFile,
		Pushed:     pushed,
		RepoID:     opts.hfRepoID,
		Duration:   time.Since(startTime),
	}
	if saved {
		result.Saved = len(samples)
	}
	reportResult(result)
}
