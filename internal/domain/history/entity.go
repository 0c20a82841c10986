package history

import "time"

// BatchID identifier type
type BatchID string

// BatchRecord is the audit row persisted for every completed batch run.
type BatchRecord struct {
	ID          BatchID   `json:"id"`
	SessionID   string    `json:"session_id"`
	Files       int       `json:"files"`
	Succeeded   int       `json:"succeeded"`
	Failed      int       `json:"failed"`
	ArtifactURL string    `json:"artifact_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
