package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/medalyze/internal/application/batch"
	"github.com/bryanwahyu/medalyze/internal/application/notify"
	"github.com/bryanwahyu/medalyze/internal/application/report"
	"github.com/bryanwahyu/medalyze/internal/domain/analysis"
	"github.com/bryanwahyu/medalyze/internal/infra/session"
	"github.com/bryanwahyu/medalyze/internal/middleware"
)

// fakeBackend scores every upload with a fixed 4-criteria row and fails the
// files listed in fail.
type fakeBackend struct {
	fail    map[string]bool
	pushErr error
	pushed  int
}

func (f *fakeBackend) UploadTranscript(_ context.Context, doc analysis.Document) (*analysis.Result, error) {
	if f.fail[doc.Name] {
		return nil, &analysis.TransportError{Op: "upload", StatusCode: 500, Err: fmt.Errorf("rejected")}
	}
	return &analysis.Result{Matrix: [][]float64{{0.8, 0.6, 1.0, 0.4}}}, nil
}

func (f *fakeBackend) FetchAnalysis(context.Context, string) (*analysis.Result, error) {
	return nil, fmt.Errorf("not used")
}

func (f *fakeBackend) PushHeatmap(context.Context, string, []byte) error {
	f.pushed++
	return f.pushErr
}

func newTestServer(t *testing.T, backend analysis.Backend) (*httptest.Server, *session.Store) {
	t.Helper()
	sessions := session.NewStore()

	batchSvc := &batch.Service{Backend: backend, Sessions: sessions, Clock: batch.SystemClock{}}
	reportSvc := &report.Service{Backend: backend, Sessions: sessions}
	notifySvc := &notify.Service{Backend: backend}

	h := NewRouter(batchSvc, reportSvc, notifySvc, sessions, nil,
		map[string]middleware.HealthChecker{}, 16<<20)
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return srv, sessions
}

func createSession(t *testing.T, srv *httptest.Server) string {
	t.Helper()
	resp, err := http.Post(srv.URL+"/v1/sessions", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		SessionID string `json:"session_id"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.NotEmpty(t, body.SessionID)
	return body.SessionID
}

func uploadFiles(t *testing.T, srv *httptest.Server, sessionID string, names ...string) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, name := range names {
		part, err := mw.CreateFormFile("files", name)
		require.NoError(t, err)
		_, err = part.Write([]byte("patient: hello\ndoctor: hi"))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/v1/sessions/"+sessionID+"/transcripts", &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func TestUploadAndReportFlow(t *testing.T) {
	backend := &fakeBackend{fail: map[string]bool{"bad.txt": true}}
	srv, _ := newTestServer(t, backend)
	id := createSession(t, srv)

	resp := uploadFiles(t, srv, id, "call1.txt", "bad.txt", "call2.txt")
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var upload struct {
		Processed int               `json:"processed"`
		Failed    int               `json:"failed"`
		Uploaded  []string          `json:"uploaded"`
		Failures  []batch.FileError `json:"failures"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&upload))
	assert.Equal(t, 2, upload.Processed)
	assert.Equal(t, 1, upload.Failed)
	assert.Equal(t, []string{"call1.txt", "call2.txt"}, upload.Uploaded)
	require.Len(t, upload.Failures, 1)
	assert.Equal(t, "bad.txt", upload.Failures[0].FileName)

	// report over the two successes
	rresp, err := http.Get(srv.URL + "/v1/sessions/" + id + "/report")
	require.NoError(t, err)
	defer rresp.Body.Close()
	require.Equal(t, http.StatusOK, rresp.StatusCode)

	var rep struct {
		Columns []string `json:"columns"`
		Rows    []struct {
			Label   string   `json:"label"`
			Overall *float64 `json:"overall_score"`
		} `json:"rows"`
	}
	require.NoError(t, json.NewDecoder(rresp.Body).Decode(&rep))
	assert.Equal(t, []string{"Criterion A", "Criterion B", "Criterion C", "Criterion D", "Overall Score"}, rep.Columns)
	require.Len(t, rep.Rows, 2)
	assert.Equal(t, "call1.txt 1", rep.Rows[0].Label)
	assert.Equal(t, "call2.txt 1", rep.Rows[1].Label)
	require.NotNil(t, rep.Rows[0].Overall)
	assert.InDelta(t, 0.7, *rep.Rows[0].Overall, 1e-9)
}

func TestHeatmapAndScoresEndpoints(t *testing.T) {
	srv, _ := newTestServer(t, &fakeBackend{})
	id := createSession(t, srv)
	uploadFiles(t, srv, id, "call1.txt").Body.Close()

	for _, path := range []string{"/heatmap.png", "/scores.png"} {
		resp, err := http.Get(srv.URL + "/v1/sessions/" + id + path)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
		assert.Equal(t, "image/png", resp.Header.Get("Content-Type"), path)
		resp.Body.Close()
	}
}

func TestNotifyFlow(t *testing.T) {
	backend := &fakeBackend{}
	srv, _ := newTestServer(t, backend)
	id := createSession(t, srv)
	uploadFiles(t, srv, id, "call1.txt").Body.Close()

	resp, err := http.Post(srv.URL+"/v1/sessions/"+id+"/notify", "application/json",
		bytes.NewReader([]byte(`{"filename":"batch-heatmap.png"}`)))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Status   string `json:"status"`
		Filename string `json:"filename"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "sent", body.Status)
	assert.Equal(t, "batch-heatmap.png", body.Filename)
	assert.Equal(t, 1, backend.pushed)
}

func TestNotifyTransportFailureIsBadGateway(t *testing.T) {
	backend := &fakeBackend{pushErr: &analysis.TransportError{Op: "push", StatusCode: 503, Err: fmt.Errorf("down")}}
	srv, _ := newTestServer(t, backend)
	id := createSession(t, srv)
	uploadFiles(t, srv, id, "call1.txt").Body.Close()

	resp, err := http.Post(srv.URL+"/v1/sessions/"+id+"/notify", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
}

func TestReportWithoutDataConflicts(t *testing.T) {
	srv, _ := newTestServer(t, &fakeBackend{})
	id := createSession(t, srv)

	resp, err := http.Get(srv.URL + "/v1/sessions/" + id + "/report")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestSessionErrors(t *testing.T) {
	srv, _ := newTestServer(t, &fakeBackend{})

	// well-formed but unknown id
	resp, err := http.Get(srv.URL + "/v1/sessions/6f1e9b34-0c1d-4d9a-9c61-0a3d6e2f1b07/report")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// malformed id
	resp, err = http.Get(srv.URL + "/v1/sessions/not-a-uuid/report")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestUploadRejectsUnsupportedFiles(t *testing.T) {
	srv, _ := newTestServer(t, &fakeBackend{})
	id := createSession(t, srv)

	resp := uploadFiles(t, srv, id, "malware.exe")
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var upload struct {
		Processed int               `json:"processed"`
		Failures  []batch.FileError `json:"failures"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&upload))
	assert.Zero(t, upload.Processed)
	require.Len(t, upload.Failures, 1)
	assert.Contains(t, upload.Failures[0].Error, "unsupported file type")
}

func TestUploadReplacesPriorResults(t *testing.T) {
	srv, sessions := newTestServer(t, &fakeBackend{})
	id := createSession(t, srv)

	uploadFiles(t, srv, id, "call1.txt", "call2.txt").Body.Close()
	uploadFiles(t, srv, id, "call3.txt").Body.Close()

	results, err := sessions.Results(id)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "call3.txt", results[0].FileName)
}

func TestBatchesWithoutHistory(t *testing.T) {
	srv, _ := newTestServer(t, &fakeBackend{})

	resp, err := http.Get(srv.URL + "/v1/batches")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var list []any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
	assert.Empty(t, list)
}

func TestOpsEndpoints(t *testing.T) {
	srv, _ := newTestServer(t, &fakeBackend{})

	for path, want := range map[string]int{
		"/health":  http.StatusOK,
		"/ready":   http.StatusOK,
		"/live":    http.StatusOK,
		"/metrics": http.StatusOK,
	} {
		resp, err := http.Get(srv.URL + path)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, want, resp.StatusCode, path)
	}
}
