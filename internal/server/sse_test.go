package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/profile-sourcer/internal/pipeline"
)

type noFlushWriter struct {
	http.ResponseWriter
}

func TestSSEWriter_NumbersEvents(t *testing.T) {
	rec := httptest.NewRecorder()
	sse, err := NewSSEWriter(rec)
	require.NoError(t, err)

	require.NoError(t, sse.WriteEvent("step", map[string]string{"step": "compiled"}))
	sse.WriteError(&pipeline.Failure{Kind: pipeline.KindInsufficientCredits, Message: "no credits"})

	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(rec.Body.String(),
		"id: 1\nevent: step\ndata: {\"step\":\"compiled\"}\n\nid: 2\nevent: error\ndata: "), rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"error":"insufficient_credits"`)
}

func TestSSEWriter_Unsupported(t *testing.T) {
	_, err := NewSSEWriter(noFlushWriter{httptest.NewRecorder()})
	assert.ErrorContains(t, err, "streaming not supported")
}

func TestSSEWriter_KeepAlive(t *testing.T) {
	rec := httptest.NewRecorder()
	sse, err := NewSSEWriter(rec)
	require.NoError(t, err)

	stop := sse.KeepAlive(context.Background(), 5*time.Millisecond)
	time.Sleep(40 * time.Millisecond)
	stop()

	assert.Contains(t, rec.Body.String(), ": keep-alive\n\n")

	// Nothing is written once stopped.
	n := rec.Body.Len()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, n, rec.Body.Len())
}

func TestSSEWriter_KeepAliveStopsWithContext(t *testing.T) {
	sse, err := NewSSEWriter(httptest.NewRecorder())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	stop := sse.KeepAlive(ctx, time.Hour)
	cancel()
	stop()
}
