package history

import "context"

// Repository port for persisting and querying batch audit rows
type Repository interface {
	Save(ctx context.Context, rec *BatchRecord) error
	Paginate(ctx context.Context, page, pageSize int) ([]*BatchRecord, error)

	// AttachArtifact records the archived heatmap URL on the most recent
	// batch of a session.
	AttachArtifact(ctx context.Context, sessionID, url string) error
}
