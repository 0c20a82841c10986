package analysis

import "context"

// Backend port. Hides whether the remote side exposes per-operation REST
// endpoints or a single generic agent-invocation endpoint; callers never
// branch on the transport shape.
type Backend interface {
	UploadTranscript(ctx context.Context, doc Document) (*Result, error)
	FetchAnalysis(ctx context.Context, id string) (*Result, error)
	PushHeatmap(ctx context.Context, filename string, png []byte) error
}
