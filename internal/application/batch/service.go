package batch

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/bryanwahyu/medalyze/internal/domain/analysis"
	"github.com/bryanwahyu/medalyze/internal/domain/history"
	"github.com/bryanwahyu/medalyze/internal/infra/session"
)

// ErrBatchInFlight rejects overlapping batch submissions for one session.
var ErrBatchInFlight = errors.New("a batch is already running for this session")

// Clock abstraction so tests can pin timestamps
type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// Service implements the batch upload use-case: every document is submitted
// independently and a failing transcript never blocks the rest.
type Service struct {
	Backend  analysis.Backend
	Sessions *session.Store
	History  history.Repository // optional audit trail
	Clock    Clock
}

// FileError is the per-document failure report.
type FileError struct {
	FileName string `json:"file_name"`
	Error    string `json:"error"`
}

type Outcome struct {
	SessionID string
	Results   []analysis.Result
	Failures  []FileError
}

// ProcessBatch uploads each document in order and replaces the session's
// result set with the successes. Per-document transport failures are
// collected, not propagated; result order matches input order.
func (s *Service) ProcessBatch(ctx context.Context, sessionID string, docs []analysis.Document) (*Outcome, error) {
	if err := s.Sessions.Begin(sessionID); err != nil {
		if errors.Is(err, session.ErrBusy) {
			return nil, ErrBatchInFlight
		}
		return nil, err
	}
	defer s.Sessions.End(sessionID)

	out := &Outcome{SessionID: sessionID}
	for _, doc := range docs {
		res, err := s.Backend.UploadTranscript(ctx, doc)
		if err != nil {
			log.Printf("upload failed: session=%s file=%s err=%v", sessionID, doc.Name, err)
			out.Failures = append(out.Failures, FileError{FileName: doc.Name, Error: err.Error()})
			continue
		}
		res.FileName = doc.Name
		out.Results = append(out.Results, *res)
	}

	if err := s.Sessions.Replace(sessionID, out.Results); err != nil {
		return nil, err
	}

	s.record(ctx, out, len(docs))
	return out, nil
}

// record persists the audit row; history is best effort and never fails the batch.
func (s *Service) record(ctx context.Context, out *Outcome, files int) {
	if s.History == nil {
		return
	}
	rec := &history.BatchRecord{
		ID:        history.BatchID(uuid.New().String()),
		SessionID: out.SessionID,
		Files:     files,
		Succeeded: len(out.Results),
		Failed:    len(out.Failures),
		CreatedAt: s.Clock.Now(),
	}
	if err := s.History.Save(ctx, rec); err != nil {
		log.Printf("history save failed: session=%s err=%v", out.SessionID, err)
	}
}
