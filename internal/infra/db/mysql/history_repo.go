package mysql

import (
	"context"
	"database/sql"
	"strings"
	"time"

	domain "github.com/bryanwahyu/medalyze/internal/domain/history"
)

type HistoryRepository struct {
	db *sql.DB
}

func NewHistoryRepository(db *sql.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// Save inserts a batch audit row
func (r *HistoryRepository) Save(ctx context.Context, rec *domain.BatchRecord) error {
	const q = `
INSERT INTO transcript_batches
  (id, session_id, files, succeeded, failed, artifact_url, created_at)
VALUES (?,?,?,?,?,?,?)
ON DUPLICATE KEY UPDATE
  files=VALUES(files), succeeded=VALUES(succeeded), failed=VALUES(failed), artifact_url=VALUES(artifact_url);
`
	session := stringOrDash(rec.SessionID)
	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err := r.db.ExecContext(ctx, q, rec.ID, session, rec.Files, rec.Succeeded, rec.Failed, rec.ArtifactURL, createdAt)
	return err
}

// Paginate returns a page of batch rows ordered by created_at desc
func (r *HistoryRepository) Paginate(ctx context.Context, page, pageSize int) ([]*domain.BatchRecord, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	const q = `
SELECT id, session_id, files, succeeded, failed, artifact_url, created_at
FROM transcript_batches
ORDER BY created_at DESC, id DESC
LIMIT ? OFFSET ?;
`
	rows, err := r.db.QueryContext(ctx, q, pageSize, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.BatchRecord
	for rows.Next() {
		var rec domain.BatchRecord
		var created time.Time
		if err := rows.Scan(&rec.ID, &rec.SessionID, &rec.Files, &rec.Succeeded, &rec.Failed, &rec.ArtifactURL, &created); err != nil {
			return nil, err
		}
		rec.CreatedAt = created
		out = append(out, &rec)
	}
	return out, rows.Err()
}

// AttachArtifact stores the archived heatmap URL on the session's newest batch
func (r *HistoryRepository) AttachArtifact(ctx context.Context, sessionID, url string) error {
	const q = `
UPDATE transcript_batches
SET artifact_url=?
WHERE session_id=?
ORDER BY created_at DESC, id DESC
LIMIT 1;
`
	_, err := r.db.ExecContext(ctx, q, url, sessionID)
	return err
}

// stringOrDash returns "-" when the input is empty/whitespace
func stringOrDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
