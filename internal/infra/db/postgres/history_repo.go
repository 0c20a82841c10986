package postgres

import (
	"context"
	"database/sql"
	"time"

	domain "github.com/bryanwahyu/medalyze/internal/domain/history"
)

type HistoryRepository struct {
	db *sql.DB
}

func NewHistoryRepository(db *sql.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

func (r *HistoryRepository) Save(ctx context.Context, rec *domain.BatchRecord) error {
	const q = `
INSERT INTO transcript_batches
  (id, session_id, files, succeeded, failed, artifact_url, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7)
ON CONFLICT (id) DO UPDATE SET
  files=EXCLUDED.files, succeeded=EXCLUDED.succeeded, failed=EXCLUDED.failed, artifact_url=EXCLUDED.artifact_url;
`
	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	_, err := r.db.ExecContext(ctx, q, rec.ID, rec.SessionID, rec.Files, rec.Succeeded, rec.Failed, rec.ArtifactURL, createdAt)
	return err
}

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
LIMIT $1 OFFSET $2;
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

func (r *HistoryRepository) AttachArtifact(ctx context.Context, sessionID, url string) error {
	const q = `
UPDATE transcript_batches
SET artifact_url=$1
WHERE id = (
  SELECT id FROM transcript_batches
  WHERE session_id=$2
  ORDER BY created_at DESC, id DESC
  LIMIT 1
);
`
	_, err := r.db.ExecContext(ctx, q, url, sessionID)
	return err
}
