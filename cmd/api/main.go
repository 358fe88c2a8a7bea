package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/tejuiceB/finSight/internal/agent"
	"github.com/tejuiceB/finSight/internal/api/handlers"
	"github.com/tejuiceB/finSight/internal/api/middleware"
	"github.com/tejuiceB/finSight/internal/domain"
	"github.com/tejuiceB/finSight/internal/gemini"
	"github.com/tejuiceB/finSight/internal/jobs"
	"github.com/tejuiceB/finSight/internal/jobs/inmemory"
	"github.com/tejuiceB/finSight/internal/logger"
	"github.com/tejuiceB/finSight/internal/store"
)

func main() {
	// Load .env if present; real env vars win
	_ = godotenv.Load()

	// Parse command-line flags
	var (
		port      = flag.String("port", "8080", "HTTP server port")
		dataPath  = flag.String("data", envOr("FINSIGHT_DATA", "finsight-data.json"), "path to the JSON state file (or set FINSIGHT_DATA env)")
		modelName = flag.String("model", envOr("GEMINI_MODEL", gemini.DefaultModel), "Gemini model name (or set GEMINI_MODEL env)")
	)
	flag.Parse()

	// Initialize logger
	log := logger.New()

	if os.Getenv("GEMINI_API_KEY") == "" {
		log.Warn().Msg("GEMINI_API_KEY is not set - LLM calls will fail")
	}

	ctx := context.Background()

	// Initialize state repository
	repo := store.NewFileStore(*dataPath)
	if _, err := repo.Load(ctx); err != nil {
		log.Fatal().Err(err).Str("path", *dataPath).Msg("Failed to open state file")
	}
	log.Info().Str("path", *dataPath).Msg("State file ready")

	// LLM backend used by both the proxy endpoint and the agents
	generator := gemini.NewGenerator(*modelName)

	// Latest pipeline status for polling clients
	statusHub := handlers.NewStatusHub()

	// Initialize job infrastructure
	jobStore := inmemory.NewStore()
	jobQueue := inmemory.NewQueue(100, jobStore)

	workerCtx, cancelWorker := context.WithCancel(ctx)
	defer cancelWorker()

	// Job handler runs the full agent pipeline for each uploaded batch
	jobHandler := func(ctx context.Context, job jobs.Job) error {
		processJob, ok := job.(*jobs.ProcessStatementsJob)
		if !ok {
			return fmt.Errorf("unexpected job type: %T", job)
		}

		log.Info().
			Str("job_id", processJob.JobID).
			Int("files", len(processJob.Files)).
			Msg("Processing statements job")

		state, err := repo.Load(ctx)
		if err != nil {
			return fmt.Errorf("load state: %w", err)
		}

		orch := agent.New(state.UserProfile, repo, generator,
			agent.WithLogger(log),
			agent.WithStatusFunc(func(status domain.ProcessingStatus) {
				statusHub.Set(status)
			}),
		)

		result, err := orch.ProcessFiles(ctx, processJob.Files)
		if err != nil {
			log.Error().
				Err(err).
				Str("job_id", processJob.JobID).
				Msg("Pipeline execution failed")
			return err
		}

		log.Info().
			Str("job_id", processJob.JobID).
			Int("transactions", len(result.Transactions)).
			Int("recommendations", len(result.Recommendations)).
			Msg("Pipeline execution completed successfully")

		return nil
	}

	// Start job consumer in background
	go func() {
		log.Info().Msg("Starting job worker")
		if err := jobQueue.Start(workerCtx, jobHandler); err != nil {
			log.Error().Err(err).Msg("Job worker stopped with error")
		}
	}()

	// Chat agent shares the repository and LLM backend
	chatAgent := func(ctx context.Context) *agent.Orchestrator {
		state, err := repo.Load(ctx)
		if err != nil {
			return agent.New(domain.UserProfile{}, repo, generator, agent.WithLogger(log))
		}
		return agent.New(state.UserProfile, repo, generator, agent.WithLogger(log))
	}

	// Initialize handlers
	geminiHandler := handlers.NewGeminiHandler(generator, log)
	processHandler := handlers.NewProcessHandler(repo, jobQueue, log)
	jobsHandler := handlers.NewJobsHandler(jobStore, log)
	stateHandler := handlers.NewStateHandler(repo, log)
	transactionsHandler := handlers.NewTransactionsHandler(repo, log)
	remindersHandler := handlers.NewRemindersHandler(repo, log)
	chatHandler := handlers.NewChatHandler(askerFunc(func(ctx context.Context, question string) (string, error) {
		return chatAgent(ctx).Ask(ctx, question)
	}), log)
	statusHandler := handlers.NewStatusHandler(statusHub)

	// Create router
	mux := http.NewServeMux()

	// Gemini proxy endpoints
	mux.HandleFunc("/api/gemini", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			geminiHandler.Generate(w, r)
		case http.MethodGet:
			geminiHandler.Health(w, r)
		default:
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	// Processing endpoints
	mux.HandleFunc("/api/process", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			processHandler.Process(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/status", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			statusHandler.Get(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	// Jobs endpoints
	mux.HandleFunc("/api/jobs", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			jobsHandler.List(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/jobs/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			jobID := strings.TrimPrefix(r.URL.Path, "/api/jobs/")
			if jobID == "" {
				middleware.WriteError(w, http.StatusBadRequest, "Job ID is required")
				return
			}
			jobsHandler.Get(w, r, jobID)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	// State endpoints
	mux.HandleFunc("/api/state", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			stateHandler.Get(w, r)
		case http.MethodDelete:
			stateHandler.Reset(w, r)
		default:
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/state/export", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			stateHandler.Export(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/state/import", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			stateHandler.Import(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	// Transactions endpoints
	mux.HandleFunc("/api/transactions", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			transactionsHandler.List(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	// Reminders endpoints
	mux.HandleFunc("/api/reminders", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			remindersHandler.List(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/reminders/", func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimPrefix(r.URL.Path, "/api/reminders/")
		if id == "" {
			middleware.WriteError(w, http.StatusBadRequest, "Reminder ID is required")
			return
		}
		switch r.Method {
		case http.MethodPatch:
			remindersHandler.Update(w, r, id)
		case http.MethodDelete:
			remindersHandler.Delete(w, r, id)
		default:
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	// Chat endpoint
	mux.HandleFunc("/api/chat", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			chatHandler.Chat(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	// Health check endpoint
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	// Apply middleware
	handler := middleware.Recovery(log)(
		middleware.Logger(log)(
			middleware.RequestID(
				middleware.CORS(mux),
			),
		),
	)

	// Create HTTP server. Write timeout covers synchronous LLM calls on the
	// proxy and chat endpoints.
	server := &http.Server{
		Addr:         ":" + *port,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 180 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info().Str("port", *port).Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	cancelWorker()

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	// Stop job queue and wait for in-flight jobs
	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error stopping job queue")
	}

	if err := jobQueue.Close(); err != nil {
		log.Error().Err(err).Msg("Failed to close job queue")
	}

	log.Info().Msg("Server exited")
}

type askerFunc func(ctx context.Context, question string) (string, error)

func (f askerFunc) Ask(ctx context.Context, question string) (string, error) {
	return f(ctx, question)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
