package assistant

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

type Kind string

const (
	KindChatbot        Kind = "chatbot"
	KindReportAnalyzer Kind = "report-analyzer"
	KindDietPlanner    Kind = "diet-planner"
)

var (
	ErrServiceUnavailable = errors.New("assistant service unavailable")
	ErrJobNotFound        = errors.New("assistant job not found")
	ErrNotConfigured      = errors.New("assistant service not configured")
)

// Client speaks the initiate-then-poll contract the inference services
// expose: submit a payload, get an opaque job ID back, then poll (or stream)
// until a terminal result arrives. No inference logic lives here.
type Client struct {
	baseURL string
	client  *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type submitResponse struct {
	JobID string `json:"job_id"`
}

type jobResponse struct {
	Status string `json:"status"` // queued, running, completed, failed
	Result string `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}

func (c *Client) Submit(ctx context.Context, payload json.RawMessage) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/jobs", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build submit request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted && resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: submit status %d", ErrServiceUnavailable, resp.StatusCode)
	}

	var out submitResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode submit response: %w", err)
	}
	return out.JobID, nil
}

// Poll returns the job result when it is ready. ready=false with a nil
// error means the job is still running.
func (c *Client) Poll(ctx context.Context, jobID string) (result string, ready bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/jobs/"+jobID, nil)
	if err != nil {
		return "", false, fmt.Errorf("build poll request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", false, fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", false, ErrJobNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return "", false, fmt.Errorf("%w: poll status %d", ErrServiceUnavailable, resp.StatusCode)
	}

	var out jobResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", false, fmt.Errorf("decode poll response: %w", err)
	}

	switch out.Status {
	case "completed":
		return out.Result, true, nil
	case "failed":
		return "", true, fmt.Errorf("assistant job failed: %s", out.Error)
	default:
		return "", false, nil
	}
}

// WaitForResult polls with linear backoff until the job finishes or the
// attempt budget runs out.
func (c *Client) WaitForResult(ctx context.Context, jobID string, interval time.Duration, maxAttempts int) (string, error) {
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		result, ready, err := c.Poll(ctx, jobID)
		if err != nil && !errors.Is(err, ErrServiceUnavailable) {
			return "", err
		}
		if ready {
			return result, nil
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(time.Duration(attempt) * interval):
		}
	}
	return "", fmt.Errorf("assistant job %s not ready after %d attempts", jobID, maxAttempts)
}

// StreamResult consumes the server-sent-events variant of the result
// endpoint, returning the payload of the terminal event.
func (c *Client) StreamResult(ctx context.Context, jobID string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/jobs/"+jobID+"/events", nil)
	if err != nil {
		return "", fmt.Errorf("build stream request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", ErrJobNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: stream status %d", ErrServiceUnavailable, resp.StatusCode)
	}

	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data:") {
			continue
		}

		var ev jobResponse
		if err := json.Unmarshal([]byte(strings.TrimSpace(strings.TrimPrefix(line, "data:"))), &ev); err != nil {
			continue // keep-alive or malformed frame
		}
		switch ev.Status {
		case "completed":
			return ev.Result, nil
		case "failed":
			return "", fmt.Errorf("assistant job failed: %s", ev.Error)
		}
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("read event stream: %w", err)
	}

	return "", fmt.Errorf("event stream ended before a terminal event")
}

// Registry maps the configured assistant services by kind. Unconfigured
// services are simply absent.
type Registry map[Kind]*Client

func NewRegistry(chatbotURL, reportAnalyzerURL, dietPlannerURL string) Registry {
	reg := Registry{}
	if chatbotURL != "" {
		reg[KindChatbot] = NewClient(chatbotURL)
	}
	if reportAnalyzerURL != "" {
		reg[KindReportAnalyzer] = NewClient(reportAnalyzerURL)
	}
	if dietPlannerURL != "" {
		reg[KindDietPlanner] = NewClient(dietPlannerURL)
	}
	return reg
}

func (r Registry) Get(kind Kind) (*Client, error) {
	c, ok := r[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotConfigured, kind)
	}
	return c, nil
}
