// Package agent talks to the analysis backend through its single generic
// agent-invocation endpoint. Every operation is the same POST, parameterized
// by an agent name and a flat name/value param list; file content travels
// base64-encoded inside the JSON body.
package agent

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bryanwahyu/medalyze/internal/domain/analysis"
)

const maxResponseBytes = 8 << 20

// Agents names the remote agents for each operation.
type Agents struct {
	Upload string
	Fetch  string
	Notify string
}

type Client struct {
	http      *http.Client
	endpoint  string
	apiKey    string
	timeoutMS int
	agents    Agents
}

func NewClient(endpoint, apiKey string, timeout time.Duration, agents Agents) *Client {
	return &Client{
		http:      &http.Client{Timeout: timeout},
		endpoint:  strings.TrimRight(endpoint, "/"),
		apiKey:    apiKey,
		timeoutMS: int(timeout / time.Millisecond),
		agents:    agents,
	}
}

type param struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type options struct {
	Timeout   int  `json:"timeout"`
	Streaming bool `json:"streaming"`
}

type invocation struct {
	NTL     string  `json:"ntl"`
	Agent   string  `json:"agent"`
	Params  []param `json:"params"`
	Options options `json:"options"`
}

func (c *Client) UploadTranscript(ctx context.Context, doc analysis.Document) (*analysis.Result, error) {
	data, err := c.invoke(ctx, "upload", c.agents.Upload, []param{
		{Name: "file_name", Value: doc.Name},
		{Name: "file_content_base64", Value: base64.StdEncoding.EncodeToString(doc.Content)},
	})
	if err != nil {
		return nil, err
	}
	return decodeResult("upload", data)
}

func (c *Client) FetchAnalysis(ctx context.Context, id string) (*analysis.Result, error) {
	data, err := c.invoke(ctx, "fetch", c.agents.Fetch, []param{
		{Name: "analysis_id", Value: id},
	})
	if err != nil {
		return nil, err
	}
	return decodeResult("fetch", data)
}

// PushHeatmap hands the rendered image to the notification agent. The agent
// replies with an ack, not an analysis payload, so only the HTTP outcome
// decides success.
func (c *Client) PushHeatmap(ctx context.Context, filename string, png []byte) error {
	_, err := c.invoke(ctx, "push", c.agents.Notify, []param{
		{Name: "file_name", Value: filename},
		{Name: "file_content_base64", Value: base64.StdEncoding.EncodeToString(png)},
	})
	return err
}

func (c *Client) invoke(ctx context.Context, op, agentName string, params []param) ([]byte, error) {
	body, err := json.Marshal(invocation{
		Agent:   agentName,
		Params:  params,
		Options: options{Timeout: c.timeoutMS, Streaming: false},
	})
	if err != nil {
		return nil, &analysis.TransportError{Op: op, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, &analysis.TransportError{Op: op, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &analysis.TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		msg := strings.TrimSpace(string(snippet))
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return nil, &analysis.TransportError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("%s", msg)}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, &analysis.TransportError{Op: op, Err: err}
	}
	return data, nil
}

func decodeResult(op string, data []byte) (*analysis.Result, error) {
	var res analysis.Result
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, &analysis.TransportError{Op: op, Err: fmt.Errorf("malformed response: %w", err)}
	}
	if res.Matrix == nil && res.AnalysisID == "" {
		return nil, &analysis.TransportError{Op: op, Err: fmt.Errorf("response carries neither matrix nor analysis_id")}
	}
	return &res, nil
}
