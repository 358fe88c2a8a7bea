// Package handlers implements the HTTP surface of the finSight API server.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tejuiceB/finSight/internal/api/middleware"
	"github.com/tejuiceB/finSight/internal/domain"
	"github.com/tejuiceB/finSight/internal/extract"
	"github.com/tejuiceB/finSight/internal/jobs"
	"github.com/tejuiceB/finSight/internal/store"
)

// maxUploadBytes bounds the whole multipart request body: a few statement
// files at the 10 MB per-file cap.
const maxUploadBytes = 64 << 20

// StatusHub stores the most recent pipeline status for polling clients.
type StatusHub struct {
	mu     sync.RWMutex
	latest domain.ProcessingStatus
}

// NewStatusHub starts in the idle state.
func NewStatusHub() *StatusHub {
	return &StatusHub{latest: domain.ProcessingStatus{Stage: domain.StageIdle}}
}

// Set replaces the latest status.
func (s *StatusHub) Set(status domain.ProcessingStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latest = status
}

// Get returns the latest status.
func (s *StatusHub) Get() domain.ProcessingStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest
}

// ProcessHandler accepts statement uploads and queues processing jobs.
type ProcessHandler struct {
	repo      store.Repository
	publisher jobs.Publisher
	log       zerolog.Logger
}

// NewProcessHandler creates a new upload/processing handler.
func NewProcessHandler(repo store.Repository, publisher jobs.Publisher, log zerolog.Logger) *ProcessHandler {
	return &ProcessHandler{repo: repo, publisher: publisher, log: log}
}

// Process handles POST /api/process: a multipart form with one or more
// "files" parts. Unsupported or oversized files are rejected per file; any
// accepted file yields a queued job.
func (h *ProcessHandler) Process(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid multipart body")
		return
	}

	parts := r.MultipartForm.File["files"]
	if len(parts) == 0 {
		middleware.WriteError(w, http.StatusBadRequest, "No files uploaded")
		return
	}

	var parsed []domain.ParsedFile
	rejected := map[string]string{}

	for _, part := range parts {
		f, err := part.Open()
		if err != nil {
			rejected[part.Filename] = "unreadable file part"
			continue
		}
		data, err := io.ReadAll(io.LimitReader(f, extract.MaxFileSize+1))
		f.Close()
		if err != nil {
			rejected[part.Filename] = "unreadable file part"
			continue
		}

		pf, err := extract.FromBytes(part.Filename, data)
		if err != nil {
			switch {
			case errors.Is(err, extract.ErrUnsupportedType):
				rejected[part.Filename] = "unsupported file type"
			case errors.Is(err, extract.ErrFileTooLarge):
				rejected[part.Filename] = "file exceeds 10 MB limit"
			default:
				rejected[part.Filename] = "text extraction failed"
			}
			h.log.Warn().Err(err).Str("file", part.Filename).Msg("Rejected uploaded file")
			continue
		}

		if err := store.AddParsedFile(ctx, h.repo, pf); err != nil {
			h.log.Error().Err(err).Str("file", pf.Filename).Msg("Failed to record uploaded file")
		}
		parsed = append(parsed, pf)
	}

	if len(parsed) == 0 {
		middleware.WriteJSON(w, http.StatusBadRequest, map[string]interface{}{
			"error":    "No processable files",
			"rejected": rejected,
		})
		return
	}

	job := &jobs.ProcessStatementsJob{Files: parsed}
	if err := h.publisher.PublishProcessStatements(ctx, job); err != nil {
		h.log.Error().Err(err).Msg("Failed to enqueue processing job")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to queue processing")
		return
	}

	accepted := make([]string, 0, len(parsed))
	for _, pf := range parsed {
		accepted = append(accepted, pf.Filename)
	}

	middleware.WriteJSON(w, http.StatusAccepted, map[string]interface{}{
		"job_id":   job.JobID,
		"accepted": accepted,
		"rejected": rejected,
	})
}

// JobsHandler exposes job state for polling.
type JobsHandler struct {
	store jobs.JobStore
	log   zerolog.Logger
}

// NewJobsHandler creates a new jobs handler.
func NewJobsHandler(store jobs.JobStore, log zerolog.Logger) *JobsHandler {
	return &JobsHandler{store: store, log: log}
}

// List handles GET /api/jobs.
func (h *JobsHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.store.ListJobs(r.Context(), jobs.JobFilter{Limit: 50})
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list jobs")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list jobs")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"jobs":  list,
		"count": len(list),
	})
}

// Get handles GET /api/jobs/{id}.
func (h *JobsHandler) Get(w http.ResponseWriter, r *http.Request, jobID string) {
	job, err := h.store.GetJob(r.Context(), jobID)
	if err != nil {
		middleware.WriteError(w, http.StatusNotFound, "Job not found")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, job)
}

// Clearer is the optional reset capability of a repository.
type Clearer interface {
	Clear(ctx context.Context) error
}

// StateHandler serves the whole application state document.
type StateHandler struct {
	repo store.Repository
	log  zerolog.Logger
}

// NewStateHandler creates a new state handler.
func NewStateHandler(repo store.Repository, log zerolog.Logger) *StateHandler {
	return &StateHandler{repo: repo, log: log}
}

// Get handles GET /api/state.
func (h *StateHandler) Get(w http.ResponseWriter, r *http.Request) {
	state, err := h.repo.Load(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to load state")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to load state")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, state)
}

// Export handles GET /api/state/export: the literal persisted document as a
// download.
func (h *StateHandler) Export(w http.ResponseWriter, r *http.Request) {
	raw, err := store.Export(r.Context(), h.repo)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to export state")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to export state")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="finsight-export-`+time.Now().Format("2006-01-02")+`.json"`)
	w.WriteHeader(http.StatusOK)
	w.Write(raw)
}

// Import handles POST /api/state/import: replaces the stored state with a
// previously exported document.
func (h *StateHandler) Import(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxUploadBytes))
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Unreadable request body")
		return
	}
	if err := store.Import(r.Context(), h.repo, data); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid data format")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]string{"status": "imported"})
}

// Reset handles DELETE /api/state.
func (h *StateHandler) Reset(w http.ResponseWriter, r *http.Request) {
	clearer, ok := h.repo.(Clearer)
	if !ok {
		middleware.WriteError(w, http.StatusNotImplemented, "Reset not supported by this store")
		return
	}
	if err := clearer.Clear(r.Context()); err != nil {
		h.log.Error().Err(err).Msg("Failed to reset state")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to reset state")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

// TransactionsHandler serves the accumulated transaction list.
type TransactionsHandler struct {
	repo store.Repository
	log  zerolog.Logger
}

// NewTransactionsHandler creates a new transactions handler.
func NewTransactionsHandler(repo store.Repository, log zerolog.Logger) *TransactionsHandler {
	return &TransactionsHandler{repo: repo, log: log}
}

// List handles GET /api/transactions.
func (h *TransactionsHandler) List(w http.ResponseWriter, r *http.Request) {
	state, err := h.repo.Load(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to load state")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to load transactions")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"transactions": state.Transactions,
		"count":        len(state.Transactions),
	})
}

// RemindersHandler serves and mutates reminders: the one entity users edit
// after creation.
type RemindersHandler struct {
	repo store.Repository
	log  zerolog.Logger
}

// NewRemindersHandler creates a new reminders handler.
func NewRemindersHandler(repo store.Repository, log zerolog.Logger) *RemindersHandler {
	return &RemindersHandler{repo: repo, log: log}
}

// List handles GET /api/reminders.
func (h *RemindersHandler) List(w http.ResponseWriter, r *http.Request) {
	state, err := h.repo.Load(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to load state")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to load reminders")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"reminders": state.Reminders,
		"count":     len(state.Reminders),
	})
}

// Update handles PATCH /api/reminders/{id} with body {"completed": bool}.
func (h *RemindersHandler) Update(w http.ResponseWriter, r *http.Request, id string) {
	var req struct {
		Completed bool `json:"completed"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := store.SetReminderCompleted(r.Context(), h.repo, id, req.Completed); err != nil {
		if strings.Contains(err.Error(), "not found") {
			middleware.WriteError(w, http.StatusNotFound, "Reminder not found")
			return
		}
		h.log.Error().Err(err).Str("reminder_id", id).Msg("Failed to update reminder")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to update reminder")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

// Delete handles DELETE /api/reminders/{id}.
func (h *RemindersHandler) Delete(w http.ResponseWriter, r *http.Request, id string) {
	if err := store.DeleteReminder(r.Context(), h.repo, id); err != nil {
		if strings.Contains(err.Error(), "not found") {
			middleware.WriteError(w, http.StatusNotFound, "Reminder not found")
			return
		}
		h.log.Error().Err(err).Str("reminder_id", id).Msg("Failed to delete reminder")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to delete reminder")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// Asker answers free-text questions about the stored data.
type Asker interface {
	Ask(ctx context.Context, question string) (string, error)
}

// ChatHandler serves the conversational assistant.
type ChatHandler struct {
	asker Asker
	log   zerolog.Logger
}

// NewChatHandler creates a new chat handler.
func NewChatHandler(asker Asker, log zerolog.Logger) *ChatHandler {
	return &ChatHandler{asker: asker, log: log}
}

// Chat handles POST /api/chat with body {"question": "..."}.
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Question string `json:"question"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Question) == "" {
		middleware.WriteError(w, http.StatusBadRequest, "question is required")
		return
	}

	answer, err := h.asker.Ask(r.Context(), req.Question)
	if err != nil {
		h.log.Error().Err(err).Msg("Chat agent failed")
		middleware.WriteError(w, http.StatusBadGateway, "Chat agent failed")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]string{"answer": answer})
}

// StatusHandler exposes the latest pipeline status.
type StatusHandler struct {
	hub *StatusHub
}

// NewStatusHandler creates a new status handler.
func NewStatusHandler(hub *StatusHub) *StatusHandler {
	return &StatusHandler{hub: hub}
}

// Get handles GET /api/status.
func (h *StatusHandler) Get(w http.ResponseWriter, r *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, h.hub.Get())
}
