package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/bryanwahyu/medalyze/internal/application/batch"
	"github.com/bryanwahyu/medalyze/internal/application/notify"
	"github.com/bryanwahyu/medalyze/internal/application/report"
	"github.com/bryanwahyu/medalyze/internal/domain/analysis"
	"github.com/bryanwahyu/medalyze/internal/domain/history"
	"github.com/bryanwahyu/medalyze/internal/infra/session"
	"github.com/bryanwahyu/medalyze/internal/middleware"
	"github.com/bryanwahyu/medalyze/internal/render"
)

const heatmapTitle = "Rubric Heatmap for All Transcripts"

// badRequest marks client errors that map to HTTP 400
type badRequest struct{ msg string }

func (e badRequest) Error() string { return e.msg }

type Router struct {
	batchSvc     *batch.Service
	reportSvc    *report.Service
	notifySvc    *notify.Service
	sessions     *session.Store
	historyRepo  history.Repository
	maxFileBytes int64
}

func NewRouter(
	batchSvc *batch.Service,
	reportSvc *report.Service,
	notifySvc *notify.Service,
	sessions *session.Store,
	historyRepo history.Repository,
	checkers map[string]middleware.HealthChecker,
	maxFileBytes int64,
) http.Handler {
	r := &Router{
		batchSvc:     batchSvc,
		reportSvc:    reportSvc,
		notifySvc:    notifySvc,
		sessions:     sessions,
		historyRepo:  historyRepo,
		maxFileBytes: maxFileBytes,
	}
	mux := chi.NewRouter()

	mux.Get("/health", middleware.HealthHandler(checkers))
	mux.Get("/ready", middleware.ReadinessHandler)
	mux.Get("/live", middleware.LivenessHandler)
	mux.Get("/metrics", middleware.MetricsHandler)

	mux.Route("/v1", func(rt chi.Router) {
		rt.Post("/sessions", r.wrap(r.handleCreateSession))
		rt.Post("/sessions/{id}/transcripts", r.wrap(r.handleUpload))
		rt.Get("/sessions/{id}/report", r.wrap(r.handleReport))
		rt.Get("/sessions/{id}/heatmap.png", r.wrap(r.handleHeatmap))
		rt.Get("/sessions/{id}/scores.png", r.wrap(r.handleScores))
		rt.Post("/sessions/{id}/notify", r.wrap(r.handleNotify))
		rt.Get("/batches", r.wrap(r.handleBatches))
	})

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		err := h(w, req)
		if err == nil {
			return
		}

		var br badRequest
		var terr *analysis.TransportError
		switch {
		case errors.As(err, &br):
			http.Error(w, br.msg, http.StatusBadRequest)
		case errors.Is(err, session.ErrNotFound):
			http.Error(w, "session not found", http.StatusNotFound)
		case errors.Is(err, batch.ErrBatchInFlight):
			http.Error(w, err.Error(), http.StatusConflict)
		case errors.Is(err, analysis.ErrNoData):
			http.Error(w, "no analysis data yet; upload transcripts first", http.StatusConflict)
		case errors.Is(err, analysis.ErrColumnMismatch):
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		case errors.As(err, &terr):
			http.Error(w, err.Error(), http.StatusBadGateway)
		default:
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	}
}

func writeJSON(w http.ResponseWriter, v any) error {
	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(v)
}

// POST /v1/sessions
func (r *Router) handleCreateSession(w http.ResponseWriter, req *http.Request) error {
	id := r.sessions.Create()
	return writeJSON(w, map[string]string{"session_id": id})
}

// POST /v1/sessions/{id}/transcripts
// Multipart body with one or more "files" parts. Documents failing upstream
// are reported per file; the batch itself still succeeds.
func (r *Router) handleUpload(w http.ResponseWriter, req *http.Request) error {
	id := chi.URLParam(req, "id")
	if err := middleware.ValidateSessionID(id); err != nil {
		return badRequest{err.Error()}
	}

	req.Body = http.MaxBytesReader(w, req.Body, r.maxFileBytes*16)
	if err := req.ParseMultipartForm(32 << 20); err != nil {
		return badRequest{fmt.Sprintf("invalid multipart body: %v", err)}
	}
	defer req.MultipartForm.RemoveAll()

	parts := req.MultipartForm.File["files"]
	if len(parts) == 0 {
		return badRequest{"no files in request (use repeated \"files\" parts)"}
	}

	var docs []analysis.Document
	var rejected []batch.FileError
	for _, fh := range parts {
		if err := middleware.ValidateUploadName(fh.Filename); err != nil {
			rejected = append(rejected, batch.FileError{FileName: fh.Filename, Error: err.Error()})
			continue
		}
		if fh.Size > r.maxFileBytes {
			rejected = append(rejected, batch.FileError{
				FileName: fh.Filename,
				Error:    fmt.Sprintf("file exceeds %d byte limit", r.maxFileBytes),
			})
			continue
		}

		f, err := fh.Open()
		if err != nil {
			rejected = append(rejected, batch.FileError{FileName: fh.Filename, Error: err.Error()})
			continue
		}
		content, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			rejected = append(rejected, batch.FileError{FileName: fh.Filename, Error: err.Error()})
			continue
		}

		docs = append(docs, analysis.Document{
			Name:      fh.Filename,
			Content:   content,
			MediaType: fh.Header.Get("Content-Type"),
		})
	}

	// every full batch run replaces the session's result set, even one where
	// no file made it past validation
	outcome := &batch.Outcome{SessionID: id}
	if len(docs) > 0 {
		var err error
		outcome, err = r.batchSvc.ProcessBatch(req.Context(), id, docs)
		if err != nil {
			return err
		}
	} else if err := r.sessions.Replace(id, nil); err != nil {
		return err
	}

	for range docs {
		middleware.IncrementUploads()
	}
	for range outcome.Failures {
		middleware.IncrementUploadsFailed()
	}

	uploaded := make([]string, 0, len(outcome.Results))
	for _, res := range outcome.Results {
		uploaded = append(uploaded, res.FileName)
	}

	failures := make([]batch.FileError, 0, len(rejected)+len(outcome.Failures))
	failures = append(failures, rejected...)
	failures = append(failures, outcome.Failures...)
	return writeJSON(w, map[string]any{
		"session_id": id,
		"processed":  len(outcome.Results),
		"failed":     len(failures),
		"uploaded":   uploaded,
		"failures":   failures,
	})
}

// GET /v1/sessions/{id}/report
func (r *Router) handleReport(w http.ResponseWriter, req *http.Request) error {
	rep, err := r.buildReport(req)
	if err != nil {
		return err
	}

	table := render.BuildScoreTable(rep.Matrix, rep.RowLabels)
	return writeJSON(w, map[string]any{
		"columns":  table.Columns,
		"rows":     table.Rows,
		"warnings": rep.Warnings,
	})
}

// GET /v1/sessions/{id}/heatmap.png
func (r *Router) handleHeatmap(w http.ResponseWriter, req *http.Request) error {
	png, err := r.renderHeatmap(req)
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "image/png")
	_, err = w.Write(png)
	return err
}

// GET /v1/sessions/{id}/scores.png
func (r *Router) handleScores(w http.ResponseWriter, req *http.Request) error {
	rep, err := r.buildReport(req)
	if err != nil {
		return err
	}

	png, err := render.OverallBarChart(render.BuildScoreTable(rep.Matrix, rep.RowLabels))
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "image/png")
	_, err = w.Write(png)
	return err
}

// POST /v1/sessions/{id}/notify
// Renders the current heatmap and forwards it to the notification agent.
func (r *Router) handleNotify(w http.ResponseWriter, req *http.Request) error {
	id := chi.URLParam(req, "id")

	filename := "heatmap.png"
	if req.Body != nil && req.ContentLength != 0 {
		var body struct {
			Filename string `json:"filename"`
		}
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			return badRequest{fmt.Sprintf("invalid body: %v", err)}
		}
		if body.Filename != "" {
			filename = body.Filename
		}
	}

	png, err := r.renderHeatmap(req)
	if err != nil {
		return err
	}

	middleware.IncrementNotify()
	receipt, err := r.notifySvc.Send(req.Context(), id, filename, png)
	if err != nil {
		middleware.IncrementNotifyFailed()
		return err
	}

	resp := map[string]any{"status": "sent", "filename": filename}
	if receipt.ArtifactURL != "" {
		resp["artifact_url"] = receipt.ArtifactURL
	}
	return writeJSON(w, resp)
}

// GET /v1/batches?page=&page_size=
func (r *Router) handleBatches(w http.ResponseWriter, req *http.Request) error {
	if r.historyRepo == nil {
		return writeJSON(w, []any{})
	}

	page, _ := strconv.Atoi(req.URL.Query().Get("page"))
	size, _ := strconv.Atoi(req.URL.Query().Get("page_size"))

	list, err := r.historyRepo.Paginate(req.Context(), page, size)
	if err != nil {
		return err
	}
	if list == nil {
		list = []*history.BatchRecord{}
	}
	return writeJSON(w, list)
}

func (r *Router) buildReport(req *http.Request) (*report.Report, error) {
	id := chi.URLParam(req, "id")
	if err := middleware.ValidateSessionID(id); err != nil {
		return nil, badRequest{err.Error()}
	}
	return r.reportSvc.BuildReport(req.Context(), id)
}

func (r *Router) renderHeatmap(req *http.Request) ([]byte, error) {
	rep, err := r.buildReport(req)
	if err != nil {
		return nil, err
	}
	cols := 0
	if len(rep.Matrix) > 0 {
		cols = len(rep.Matrix[0])
	}
	return render.Heatmap(rep.Matrix, rep.RowLabels, render.ColumnLabels(cols), heatmapTitle)
}
