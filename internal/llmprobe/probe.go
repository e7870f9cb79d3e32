// Package llmprobe checks the health of the LLM inference endpoints the
// generation pipeline depends on. It speaks both the Ollama native API and
// the OpenAI-compatible chat API, preferring the native route.
package llmprobe

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/mwhitford/backlogctl/internal/errors"
)

const endpointName = "LLM endpoint"

const maxBodyBytes = 4 << 20

// probePrompt is deliberately trivial: the probe measures reachability and
// latency, not model quality.
const probePrompt = "Reply with the single word: pong"

// Prober checks one inference endpoint.
type Prober struct {
	baseURL string
	httpc   *http.Client
}

// New creates a prober for the given base URL.
func New(baseURL string, timeout time.Duration) (*Prober, error) {
	if baseURL == "" {
		return nil, errors.ErrConfigMissing("llm.base_url")
	}
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &Prober{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   &http.Client{Timeout: timeout},
	}, nil
}

// ModelInfo describes one model advertised by the endpoint.
type ModelInfo struct {
	Name          string `json:"name"`
	ParameterSize string `json:"parameter_size,omitempty"`
}

// ListModels returns the models the endpoint advertises (Ollama /api/tags).
func (p *Prober) ListModels(ctx context.Context) ([]ModelInfo, error) {
	body, _, err := p.get(ctx, "/api/tags")
	if err != nil {
		return nil, err
	}

	var models []ModelInfo
	gjson.GetBytes(body, "models").ForEach(func(_, v gjson.Result) bool {
		models = append(models, ModelInfo{
			Name:          v.Get("name").String(),
			ParameterSize: v.Get("details.parameter_size").String(),
		})
		return true
	})
	return models, nil
}

// Result reports one completion round-trip.
type Result struct {
	Model   string        `json:"model"`
	Route   string        `json:"route"` // which API shape answered
	Latency time.Duration `json:"latency"`
	Reply   string        `json:"reply"`
}

// Completion runs a one-shot completion against the endpoint and reports
// the round-trip. The native Ollama route is tried first; endpoints that
// only expose the OpenAI-compatible surface answer on the fallback route.
func (p *Prober) Completion(ctx context.Context, model string) (*Result, error) {
	if model == "" {
		return nil, errors.ErrConfigMissing("llm.model")
	}

	start := time.Now()
	reply, err := p.ollamaGenerate(ctx, model)
	if err == nil {
		return &Result{Model: model, Route: "ollama", Latency: time.Since(start), Reply: reply}, nil
	}
	if !routeMissing(err) {
		return nil, err
	}

	start = time.Now()
	reply, err = p.openAIChat(ctx, model)
	if err != nil {
		return nil, err
	}
	return &Result{Model: model, Route: "openai", Latency: time.Since(start), Reply: reply}, nil
}

// routeMissing reports whether the error means "this API shape is not
// served here" rather than a real failure.
func routeMissing(err error) bool {
	var te *errors.ToolError
	if !stderrors.As(err, &te) {
		return false
	}
	return te.Code == errors.CodeEndpointRejected && strings.Contains(te.Why, "404")
}

func (p *Prober) ollamaGenerate(ctx context.Context, model string) (string, error) {
	body, _, err := p.post(ctx, "/api/generate", map[string]any{
		"model":  model,
		"prompt": probePrompt,
		"stream": false,
	})
	if err != nil {
		return "", err
	}
	reply := gjson.GetBytes(body, "response").String()
	if reply == "" {
		return "", errors.ErrEndpointRejected(endpointName, http.StatusOK, "generate response was empty")
	}
	return strings.TrimSpace(reply), nil
}

func (p *Prober) openAIChat(ctx context.Context, model string) (string, error) {
	body, _, err := p.post(ctx, "/v1/chat/completions", map[string]any{
		"model": model,
		"messages": []map[string]string{
			{"role": "user", "content": probePrompt},
		},
		"stream": false,
	})
	if err != nil {
		return "", err
	}
	reply := gjson.GetBytes(body, "choices.0.message.content").String()
	if reply == "" {
		return "", errors.ErrEndpointRejected(endpointName, http.StatusOK, "chat response carried no choices")
	}
	return strings.TrimSpace(reply), nil
}

func (p *Prober) get(ctx context.Context, path string) ([]byte, int, error) {
	return p.do(ctx, http.MethodGet, path, nil)
}

func (p *Prober) post(ctx context.Context, path string, payload any) ([]byte, int, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, 0, fmt.Errorf("marshal request: %w", err)
	}
	return p.do(ctx, http.MethodPost, path, data)
}

func (p *Prober) do(ctx context.Context, method, path string, payload []byte) ([]byte, int, error) {
	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, p.baseURL+path, reqBody)
	if err != nil {
		return nil, 0, fmt.Errorf("build request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := p.httpc.Do(req)
	if err != nil {
		return nil, 0, errors.ErrEndpointUnavailable(endpointName, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read response: %w", err)
	}

	if httpErr := errors.FromHTTPStatus(endpointName, resp.StatusCode, ""); httpErr != nil {
		return nil, resp.StatusCode, httpErr
	}
	return body, resp.StatusCode, nil
}
