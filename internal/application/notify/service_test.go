package notify

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/medalyze/internal/domain/analysis"
)

type fakeBackend struct {
	pushErr    error
	pushedName string
	pushedPNG  []byte
}

func (f *fakeBackend) UploadTranscript(context.Context, analysis.Document) (*analysis.Result, error) {
	return nil, fmt.Errorf("not used")
}

func (f *fakeBackend) FetchAnalysis(context.Context, string) (*analysis.Result, error) {
	return nil, fmt.Errorf("not used")
}

func (f *fakeBackend) PushHeatmap(_ context.Context, filename string, png []byte) error {
	f.pushedName = filename
	f.pushedPNG = png
	return f.pushErr
}

type fakeArchive struct {
	err  error
	keys []string
}

func (f *fakeArchive) UploadBytes(_ context.Context, key string, _ []byte, _ string) (string, error) {
	f.keys = append(f.keys, key)
	if f.err != nil {
		return "", f.err
	}
	return "http://minio/bucket/" + key, nil
}

func TestSendSuccess(t *testing.T) {
	backend := &fakeBackend{}
	svc := &Service{Backend: backend}

	receipt, err := svc.Send(context.Background(), "sess-1", "heatmap.png", []byte{1, 2, 3})
	require.NoError(t, err)
	assert.Empty(t, receipt.ArtifactURL)
	assert.Equal(t, "heatmap.png", backend.pushedName)
	assert.Equal(t, []byte{1, 2, 3}, backend.pushedPNG)
}

func TestSendTransportFailure(t *testing.T) {
	backend := &fakeBackend{pushErr: &analysis.TransportError{Op: "push", StatusCode: 503, Err: fmt.Errorf("down")}}
	svc := &Service{Backend: backend}

	// the transport outcome alone decides success, with no partial state
	_, err := svc.Send(context.Background(), "sess-1", "heatmap.png", []byte{1})
	require.Error(t, err)
	var terr *analysis.TransportError
	assert.ErrorAs(t, err, &terr)
}

func TestSendArchivesBeforePush(t *testing.T) {
	backend := &fakeBackend{}
	archive := &fakeArchive{}
	svc := &Service{Backend: backend, Archive: archive}

	receipt, err := svc.Send(context.Background(), "sess-1", "heatmap.png", []byte{1})
	require.NoError(t, err)
	assert.Contains(t, receipt.ArtifactURL, "heatmaps/")
	require.Len(t, archive.keys, 1)
	assert.Contains(t, archive.keys[0], "heatmap.png")
}

func TestSendArchiveFailureIsNotFatal(t *testing.T) {
	backend := &fakeBackend{}
	archive := &fakeArchive{err: fmt.Errorf("bucket gone")}
	svc := &Service{Backend: backend, Archive: archive}

	receipt, err := svc.Send(context.Background(), "sess-1", "heatmap.png", []byte{1})
	require.NoError(t, err)
	assert.Empty(t, receipt.ArtifactURL)
	assert.Equal(t, "heatmap.png", backend.pushedName)
}
