package report

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akshayr/portfolio-coach/internal/contracts"
	"github.com/akshayr/portfolio-coach/pkg/config"
	"github.com/akshayr/portfolio-coach/pkg/httputil"
	"github.com/akshayr/portfolio-coach/pkg/logger"
)

func TestWebhookSink_PostsReport(t *testing.T) {
	var received contracts.Report
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := httputil.New(&config.Config{}, logger.NewNop()).DisableRetry()
	sink := NewWebhookSink(client, server.URL, logger.NewNop())

	err := sink.Deliver(context.Background(), &contracts.Report{RunID: "20260828-akshay"})
	require.NoError(t, err)
	assert.Equal(t, "20260828-akshay", received.RunID)
}

func TestWebhookSink_EmptyURLIsNoop(t *testing.T) {
	client := httputil.New(&config.Config{}, logger.NewNop()).DisableRetry()
	sink := NewWebhookSink(client, "", logger.NewNop())

	assert.NoError(t, sink.Deliver(context.Background(), &contracts.Report{}))
}

func TestWebhookSink_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := httputil.New(&config.Config{}, logger.NewNop()).DisableRetry()
	sink := NewWebhookSink(client, server.URL, logger.NewNop())

	assert.Error(t, sink.Deliver(context.Background(), &contracts.Report{}))
}

func TestMemorySink_KeepsLatest(t *testing.T) {
	sink := NewMemorySink()
	assert.Nil(t, sink.Latest())

	require.NoError(t, sink.Deliver(context.Background(), &contracts.Report{RunID: "first"}))
	require.NoError(t, sink.Deliver(context.Background(), &contracts.Report{RunID: "second"}))
	assert.Equal(t, "second", sink.Latest().RunID)
}

type failingSink struct{ err error }

func (s failingSink) Deliver(_ context.Context, _ *contracts.Report) error { return s.err }

func TestMultiSink_AttemptsAll(t *testing.T) {
	memory := NewMemorySink()
	boom := errors.New("webhook down")

	multi := NewMultiSink(failingSink{err: boom}, memory)
	err := multi.Deliver(context.Background(), &contracts.Report{RunID: "r"})

	assert.ErrorIs(t, err, boom)
	require.NotNil(t, memory.Latest(), "later sinks still receive the report")
}
