package main

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/devjibs/cvagent/internal/config"
	"github.com/devjibs/cvagent/internal/observability"
	"github.com/devjibs/cvagent/internal/pipeline"
)

var runCommand = &cobra.Command{
	Use:   "run",
	Short: "Run the full tailoring pipeline end-to-end",
	Long: `Runs the whole pipeline once: parse resume -> extract job -> match -> generate CV -> generate cover letter -> review -> format and store.

Configuration can be loaded from a JSON file using --config. Command-line arguments override config file values.`,
	RunE: runPipelineCmd,
}

var (
	runConfigPath  string
	runResumePath  string
	runJobURL      string
	runOutDir      string
	runAPIKey      string
	runDatabaseURL string
	runBlobDir     string
	runUseBrowser  bool
	runVerbose     bool
)

func init() {
	// Config file flag (processed first)
	runCommand.Flags().StringVar(&runConfigPath, "config", "", "Path to config.json file (values can be overridden by other flags)")

	runCommand.Flags().StringVarP(&runResumePath, "resume", "r", "", "Path to the resume file (plain text, Markdown, or HTML)")
	runCommand.Flags().StringVar(&runJobURL, "job-url", "", "URL of the job posting to tailor against")
	runCommand.Flags().StringVarP(&runOutDir, "out", "o", "out", "Directory to write the generated PDFs to")
	runCommand.Flags().BoolVar(&runUseBrowser, "use-browser", false, "Use headless browser for SPA job boards (requires Chrome)")
	runCommand.Flags().BoolVarP(&runVerbose, "verbose", "v", false, "Print detailed stage output")

	// API key can be passed as a flag, or read from env var GEMINI_API_KEY
	runCommand.Flags().StringVar(&runAPIKey, "api-key", "", "Gemini API Key (optional, defaults to GEMINI_API_KEY env var)")

	// Persistence is optional for one-shot runs
	runCommand.Flags().StringVar(&runDatabaseURL, "db-url", "", "PostgreSQL connection URL (optional, defaults to DATABASE_URL env var)")
	runCommand.Flags().StringVar(&runBlobDir, "blob-dir", "", "Directory for document blob storage (optional, defaults to in-memory)")

	rootCmd.AddCommand(runCommand)
}

func runPipelineCmd(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()

	// Step 1: Load config file if provided
	var cfg config.Config
	if runConfigPath != "" {
		loadedCfg, err := config.LoadConfig(runConfigPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if err := loadedCfg.Validate(); err != nil {
			return err
		}
		cfg = *loadedCfg
		if runVerbose {
			fmt.Fprintf(os.Stdout, "Loaded config from: %s\n", runConfigPath)
		}
	}

	// Step 2: Apply CLI overrides (command-line args take priority)
	if cmd.Flags().Changed("api-key") {
		cfg.APIKey = runAPIKey
	}
	if cmd.Flags().Changed("db-url") {
		cfg.DatabaseURL = runDatabaseURL
	}
	if cmd.Flags().Changed("blob-dir") {
		cfg.BlobDir = runBlobDir
	}
	if cmd.Flags().Changed("use-browser") {
		cfg.UseBrowser = runUseBrowser
	}
	if cmd.Flags().Changed("verbose") {
		cfg.Verbose = runVerbose
	}

	// Step 3: Fill unset values from the environment
	cfg = cfg.MergeWithDefaults(*config.FromEnv())

	// Step 4: Validate required inputs
	if runResumePath == "" {
		return fmt.Errorf("--resume is required")
	}
	if runJobURL == "" {
		return fmt.Errorf("--job-url is required")
	}

	resumeData, err := os.ReadFile(runResumePath)
	if err != nil {
		return fmt.Errorf("failed to read resume file: %w", err)
	}

	rt, err := buildRuntime(ctx, cfg)
	if err != nil {
		return err
	}
	defer rt.Close()

	req := &pipeline.Request{
		ResumeFileName: filepath.Base(runResumePath),
		ResumeMIME:     resumeMIME(runResumePath),
		ResumeData:     resumeData,
		JobURL:         runJobURL,
	}

	result, err := rt.orchestrator.Run(ctx, req)
	if err != nil {
		return fmt.Errorf("pipeline aborted: %w", err)
	}

	printer := observability.NewPrinter(os.Stdout)
	if cfg.Verbose {
		for _, outcome := range result.Outcomes {
			printer.PrintGateDecision(outcome.Stage, outcome.PreGate)
			printer.PrintGateDecision(outcome.Stage, outcome.PostGate)
		}
	}
	printer.PrintRunResult(result)

	if !result.Success {
		return fmt.Errorf("run failed: %s", result.FailureSummary)
	}

	return writeDocuments(ctx, rt, result, runOutDir)
}

// writeDocuments copies each generated document out of blob storage into the
// output directory.
func writeDocuments(ctx context.Context, rt *runtime, result *pipeline.RunResult, outDir string) error {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	for _, doc := range result.Documents {
		data, err := rt.blobs.Download(ctx, doc.BlobRef)
		if err != nil {
			return fmt.Errorf("failed to read stored document %s: %w", doc.FileName, err)
		}
		path := filepath.Join(outDir, doc.FileName)
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
		fmt.Fprintf(os.Stdout, "Wrote %s (%d bytes)\n", path, len(data))
	}
	return nil
}

// resumeMIME guesses the upload's media type from its extension, defaulting
// to plain text.
func resumeMIME(path string) string {
	if mt := mime.TypeByExtension(filepath.Ext(path)); mt != "" {
		return mt
	}
	return "text/plain"
}
