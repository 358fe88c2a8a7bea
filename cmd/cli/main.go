package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/tejuiceB/finSight/internal/agent"
	"github.com/tejuiceB/finSight/internal/domain"
	"github.com/tejuiceB/finSight/internal/extract"
	"github.com/tejuiceB/finSight/internal/gemini"
	"github.com/tejuiceB/finSight/internal/logger"
	"github.com/tejuiceB/finSight/internal/store"
)

func main() {
	_ = godotenv.Load()

	log := logger.New()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "process":
		runProcess(log)
	case "chat":
		runChat(log)
	case "inspect":
		runInspect(log)
	case "export":
		runExport(log)
	case "import":
		runImport(log)
	case "reset":
		runReset(log)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("finSight CLI")
	fmt.Println("\nUsage:")
	fmt.Println("  cli <command> [options]")
	fmt.Println("\nCommands:")
	fmt.Println("  process   Run the agent pipeline over statement files")
	fmt.Println("  chat      Ask a question about the stored data")
	fmt.Println("  inspect   Print a summary of the stored state")
	fmt.Println("  export    Write the stored state to a file")
	fmt.Println("  import    Replace the stored state from an exported file")
	fmt.Println("  reset     Delete the stored state")
	fmt.Println("  help      Show this help message")
	fmt.Println("\nRun 'cli <command> -h' for more information on a command.")
}

// dataFlag adds the shared -data flag to a flag set.
func dataFlag(fs *flag.FlagSet) *string {
	def := os.Getenv("FINSIGHT_DATA")
	if def == "" {
		def = "finsight-data.json"
	}
	return fs.String("data", def, "path to the JSON state file")
}

// newCaller picks the LLM backend: a remote finSight server when -server is
// set, the Gemini API directly otherwise.
func newCaller(serverURL, model string) gemini.Caller {
	if serverURL != "" {
		return gemini.NewClient(serverURL)
	}
	return gemini.NewGenerator(model)
}

func runProcess(log zerolog.Logger) {
	fs := flag.NewFlagSet("process", flag.ExitOnError)
	dataPath := dataFlag(fs)
	serverURL := fs.String("server", "", "base URL of a running finSight API server (optional)")
	model := fs.String("model", gemini.DefaultModel, "Gemini model name")
	fs.Parse(os.Args[2:])

	if fs.NArg() == 0 {
		log.Fatal().Msg("Error: at least one statement file is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	var files []domain.ParsedFile
	for _, path := range fs.Args() {
		pf, err := extract.FromPath(path)
		if err != nil {
			log.Error().Err(err).Str("file", path).Msg("Skipping file")
			continue
		}
		files = append(files, pf)
	}
	if len(files) == 0 {
		log.Fatal().Msg("No processable files")
	}

	repo := store.NewFileStore(*dataPath)
	state, err := repo.Load(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load state")
	}

	orch := agent.New(state.UserProfile, repo, newCaller(*serverURL, *model),
		agent.WithLogger(log),
		agent.WithStatusFunc(func(status domain.ProcessingStatus) {
			fmt.Printf("[%3d%%] %s\n", status.Progress, status.Message)
		}),
	)

	result, err := orch.ProcessFiles(ctx, files)
	if err != nil {
		log.Fatal().Err(err).Msg("Processing failed")
	}

	fmt.Printf("\nParsed %d transactions from %d file(s).\n", len(result.Transactions), len(files))
	if result.Analysis != nil {
		m := result.Analysis.Metrics
		fmt.Printf("Income %.2f, expenses %.2f, savings rate %.1f%%\n", m.TotalIncome, m.TotalExpense, m.SavingsRate)
	}
	fmt.Printf("%d recommendation(s), %d reminder(s).\n", len(result.Recommendations), len(result.Reminders))
}

func runChat(log zerolog.Logger) {
	fs := flag.NewFlagSet("chat", flag.ExitOnError)
	dataPath := dataFlag(fs)
	serverURL := fs.String("server", "", "base URL of a running finSight API server (optional)")
	model := fs.String("model", gemini.DefaultModel, "Gemini model name")
	fs.Parse(os.Args[2:])

	question := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if question == "" {
		log.Fatal().Msg("Error: a question is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	repo := store.NewFileStore(*dataPath)
	state, err := repo.Load(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load state")
	}

	orch := agent.New(state.UserProfile, repo, newCaller(*serverURL, *model), agent.WithLogger(log))

	answer, err := orch.Ask(ctx, question)
	if err != nil {
		log.Fatal().Err(err).Msg("Chat failed")
	}
	fmt.Println(answer)
}

func runInspect(log zerolog.Logger) {
	fs := flag.NewFlagSet("inspect", flag.ExitOnError)
	dataPath := dataFlag(fs)
	fs.Parse(os.Args[2:])

	ctx := context.Background()

	repo := store.NewFileStore(*dataPath)
	state, err := repo.Load(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load state")
	}

	fmt.Println("\n=== State Summary ===")
	fmt.Printf("Last updated:    %s\n", state.LastUpdated.Format(time.RFC3339))
	fmt.Printf("Parsed files:    %d\n", len(state.ParsedFiles))
	fmt.Printf("Transactions:    %d\n", len(state.Transactions))
	fmt.Printf("Recommendations: %d\n", len(state.Recommendations))
	fmt.Printf("Reminders:       %d\n", len(state.Reminders))
	fmt.Printf("Goals:           %d\n", len(state.Goals))

	if state.AnalysisResult != nil {
		m := state.AnalysisResult.Metrics
		fmt.Println("\n=== Latest Analysis ===")
		fmt.Printf("Income:       %.2f\n", m.TotalIncome)
		fmt.Printf("Expenses:     %.2f\n", m.TotalExpense)
		fmt.Printf("Savings rate: %.1f%%\n", m.SavingsRate)
		if len(m.TopCategories) > 0 {
			fmt.Printf("Top category: %s\n", m.TopCategories[0].Category)
		}
	}

	if len(state.Reminders) > 0 {
		fmt.Printf("\n=== Reminders (%d) ===\n", len(state.Reminders))
		for i, rem := range state.Reminders {
			mark := " "
			if rem.Completed {
				mark = "x"
			}
			fmt.Printf("%d. [%s] %s %s\n", i+1, mark, rem.Time, rem.Text)
		}
	}
	fmt.Println()
}

func runExport(log zerolog.Logger) {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	dataPath := dataFlag(fs)
	outPath := fs.String("out", "", "output file (defaults to stdout)")
	fs.Parse(os.Args[2:])

	ctx := context.Background()

	repo := store.NewFileStore(*dataPath)
	raw, err := store.Export(ctx, repo)
	if err != nil {
		log.Fatal().Err(err).Msg("Export failed")
	}

	if *outPath == "" {
		fmt.Println(string(raw))
		return
	}
	if err := os.WriteFile(*outPath, raw, 0o644); err != nil {
		log.Fatal().Err(err).Msg("Failed to write export file")
	}
	fmt.Printf("Exported state to %s\n", *outPath)
}

func runImport(log zerolog.Logger) {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	dataPath := dataFlag(fs)
	inPath := fs.String("file", "", "exported JSON file to import")
	fs.Parse(os.Args[2:])

	if *inPath == "" {
		log.Fatal().Msg("Error: --file is required")
	}

	ctx := context.Background()

	data, err := os.ReadFile(*inPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to read import file")
	}

	repo := store.NewFileStore(*dataPath)
	if err := store.Import(ctx, repo, data); err != nil {
		log.Fatal().Err(err).Msg("Import failed")
	}
	fmt.Printf("Imported state from %s\n", *inPath)
}

func runReset(log zerolog.Logger) {
	fs := flag.NewFlagSet("reset", flag.ExitOnError)
	dataPath := dataFlag(fs)
	fs.Parse(os.Args[2:])

	ctx := context.Background()

	repo := store.NewFileStore(*dataPath)
	if err := repo.Clear(ctx); err != nil {
		log.Fatal().Err(err).Msg("Reset failed")
	}
	fmt.Println("State cleared.")
}
