// Package rest talks to the analysis backend through its per-operation REST
// endpoints: multipart transcript upload, fetch-by-id and heatmap push.
package rest

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"github.com/bryanwahyu/medalyze/internal/domain/analysis"
)

const maxResponseBytes = 8 << 20

type Client struct {
	http    *http.Client
	baseURL string
	apiKey  string
}

func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	return &Client{
		http:    &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
	}
}

// UploadTranscript posts the raw file as a multipart attachment.
func (c *Client) UploadTranscript(ctx context.Context, doc analysis.Document) (*analysis.Result, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	hdr := make(textproto.MIMEHeader)
	hdr.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, doc.Name))
	mediaType := doc.MediaType
	if mediaType == "" {
		mediaType = "application/octet-stream"
	}
	hdr.Set("Content-Type", mediaType)

	part, err := mw.CreatePart(hdr)
	if err != nil {
		return nil, &analysis.TransportError{Op: "upload", Err: err}
	}
	if _, err := part.Write(doc.Content); err != nil {
		return nil, &analysis.TransportError{Op: "upload", Err: err}
	}
	if err := mw.Close(); err != nil {
		return nil, &analysis.TransportError{Op: "upload", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/exploreupload", &buf)
	if err != nil {
		return nil, &analysis.TransportError{Op: "upload", Err: err}
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	return c.do(req, "upload")
}

// FetchAnalysis resolves an analysis id into its matrix payload.
func (c *Client) FetchAnalysis(ctx context.Context, id string) (*analysis.Result, error) {
	u := c.baseURL + "/get_analysis?id=" + url.QueryEscape(id)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, &analysis.TransportError{Op: "fetch", Err: err}
	}
	return c.do(req, "fetch")
}

// PushHeatmap submits the rendered heatmap for mass-email delivery.
func (c *Client) PushHeatmap(ctx context.Context, filename string, png []byte) error {
	body, err := json.Marshal(map[string]string{
		"filename":     filename,
		"image_base64": base64.StdEncoding.EncodeToString(png),
	})
	if err != nil {
		return &analysis.TransportError{Op: "push", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/upload_heatmap", bytes.NewReader(body))
	if err != nil {
		return &analysis.TransportError{Op: "push", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return &analysis.TransportError{Op: "push", Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return statusError("push", resp)
	}
	io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
	return nil
}

func (c *Client) do(req *http.Request, op string) (*analysis.Result, error) {
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &analysis.TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, statusError(op, resp)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, &analysis.TransportError{Op: op, Err: err}
	}

	var res analysis.Result
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, &analysis.TransportError{Op: op, Err: fmt.Errorf("malformed response: %w", err)}
	}
	if res.Matrix == nil && res.AnalysisID == "" {
		return nil, &analysis.TransportError{Op: op, Err: fmt.Errorf("response carries neither matrix nor analysis_id")}
	}
	return &res, nil
}

func statusError(op string, resp *http.Response) *analysis.TransportError {
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	msg := strings.TrimSpace(string(snippet))
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	return &analysis.TransportError{
		Op:         op,
		StatusCode: resp.StatusCode,
		Err:        fmt.Errorf("%s", msg),
	}
}
