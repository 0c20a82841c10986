package notify

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/bryanwahyu/medalyze/internal/domain/analysis"
	"github.com/bryanwahyu/medalyze/internal/domain/history"
)

// Archive stores a copy of the pushed image for auditing.
type Archive interface {
	UploadBytes(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

// Service forwards a rendered heatmap to the notification agent. One attempt,
// no retry; the transport outcome is the notify outcome.
type Service struct {
	Backend analysis.Backend
	Archive Archive            // optional
	History history.Repository // optional
}

type Receipt struct {
	ArtifactURL string `json:"artifact_url,omitempty"`
}

// Send archives the image when an archive is configured, then pushes it to
// the notification agent. Archive failures are logged, never fatal; the push
// alone decides success.
func (s *Service) Send(ctx context.Context, sessionID, filename string, png []byte) (*Receipt, error) {
	rec := &Receipt{}

	if s.Archive != nil {
		key := fmt.Sprintf("heatmaps/%s-%s", uuid.New().String(), filename)
		url, err := s.Archive.UploadBytes(ctx, key, png, "image/png")
		if err != nil {
			log.Printf("heatmap archive failed: session=%s err=%v", sessionID, err)
		} else {
			rec.ArtifactURL = url
			if s.History != nil {
				if err := s.History.AttachArtifact(ctx, sessionID, url); err != nil {
					log.Printf("history artifact update failed: session=%s err=%v", sessionID, err)
				}
			}
		}
	}

	if err := s.Backend.PushHeatmap(ctx, filename, png); err != nil {
		return nil, err
	}
	return rec, nil
}
