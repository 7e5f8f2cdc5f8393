package assistant

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmitAndPoll(t *testing.T) {
	var polls atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/jobs":
			w.WriteHeader(http.StatusAccepted)
			fmt.Fprint(w, `{"job_id":"job-42"}`)
		case r.Method == http.MethodGet && r.URL.Path == "/jobs/job-42":
			// First poll still running, second completes.
			if polls.Add(1) == 1 {
				fmt.Fprint(w, `{"status":"running"}`)
				return
			}
			fmt.Fprint(w, `{"status":"completed","result":"take more iron"}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	client := NewClient(server.URL)
	ctx := context.Background()

	jobID, err := client.Submit(ctx, json.RawMessage(`{"question":"diet advice"}`))
	require.NoError(t, err)
	assert.Equal(t, "job-42", jobID)

	_, ready, err := client.Poll(ctx, jobID)
	require.NoError(t, err)
	assert.False(t, ready)

	result, ready, err := client.Poll(ctx, jobID)
	require.NoError(t, err)
	assert.True(t, ready)
	assert.Equal(t, "take more iron", result)
}

func TestPollUnknownJob(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, _, err := client.Poll(context.Background(), "nope")
	require.ErrorIs(t, err, ErrJobNotFound)
}

func TestPollFailedJob(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"status":"failed","error":"model overloaded"}`)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, ready, err := client.Poll(context.Background(), "job-1")
	assert.True(t, ready)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model overloaded")
}

func TestWaitForResult(t *testing.T) {
	var polls atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if polls.Add(1) < 3 {
			fmt.Fprint(w, `{"status":"queued"}`)
			return
		}
		fmt.Fprint(w, `{"status":"completed","result":"done"}`)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	result, err := client.WaitForResult(context.Background(), "job-1", time.Millisecond, 10)
	require.NoError(t, err)
	assert.Equal(t, "done", result)
	assert.Equal(t, int32(3), polls.Load())
}

func TestWaitForResultGivesUp(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"status":"running"}`)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.WaitForResult(context.Background(), "job-1", time.Millisecond, 3)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not ready after 3 attempts")
}

func TestStreamResult(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "text/event-stream", r.Header.Get("Accept"))
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, ": keep-alive\n")
		fmt.Fprint(w, "data: {\"status\":\"running\"}\n\n")
		fmt.Fprint(w, "data: not-json\n\n")
		fmt.Fprint(w, "data: {\"status\":\"completed\",\"result\":\"summary ready\"}\n\n")
	}))
	defer server.Close()

	client := NewClient(server.URL)
	result, err := client.StreamResult(context.Background(), "job-1")
	require.NoError(t, err)
	assert.Equal(t, "summary ready", result)
}

func TestStreamResultEndsWithoutTerminalEvent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, "data: {\"status\":\"running\"}\n\n")
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.StreamResult(context.Background(), "job-1")
	require.Error(t, err)
}

func TestRegistry(t *testing.T) {
	reg := NewRegistry("http://chatbot.local", "", "http://diet.local")

	_, err := reg.Get(KindChatbot)
	require.NoError(t, err)

	_, err = reg.Get(KindDietPlanner)
	require.NoError(t, err)

	_, err = reg.Get(KindReportAnalyzer)
	require.ErrorIs(t, err, ErrNotConfigured)
}
