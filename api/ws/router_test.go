package ws

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/aokumo/nightwarden/game/player"
)

func dispatchSession() *player.Session {
	return &player.Session{AccountID: 7}
}

func TestDispatchRoutesByType(t *testing.T) {
	r := NewRouter(zap.NewNop())
	var got json.RawMessage
	r.On("move", func(_ context.Context, _ *player.Session, payload json.RawMessage) error {
		got = payload
		return nil
	})

	r.Dispatch(dispatchSession(), []byte(`{"seq":1,"type":"move","payload":{"dx":1}}`))
	assert.JSONEq(t, `{"dx":1}`, string(got))
}

func TestDispatchSeqAntiReplay(t *testing.T) {
	r := NewRouter(zap.NewNop())
	calls := 0
	r.On("ping", func(_ context.Context, _ *player.Session, _ json.RawMessage) error {
		calls++
		return nil
	})
	s := dispatchSession()

	r.Dispatch(s, []byte(`{"seq":5,"type":"ping"}`))
	r.Dispatch(s, []byte(`{"seq":5,"type":"ping"}`))
	r.Dispatch(s, []byte(`{"seq":3,"type":"ping"}`))
	assert.Equal(t, 1, calls, "replayed and stale seqs are dropped")

	r.Dispatch(s, []byte(`{"seq":6,"type":"ping"}`))
	assert.Equal(t, 2, calls)

	// Seq zero opts out of tracking entirely.
	r.Dispatch(s, []byte(`{"type":"ping"}`))
	assert.Equal(t, 3, calls)
	assert.Equal(t, uint64(6), s.LastSeq)
}

func TestDispatchIgnoresMalformedAndUnknown(t *testing.T) {
	r := NewRouter(zap.NewNop())
	r.Dispatch(dispatchSession(), []byte(`{not json`))
	r.Dispatch(dispatchSession(), []byte(`{"type":"no_such_handler"}`))
}

func TestDispatchAssignsTraceID(t *testing.T) {
	r := NewRouter(zap.NewNop())
	var traced string
	r.On("join", func(ctx context.Context, _ *player.Session, _ json.RawMessage) error {
		traced = TraceIDFromCtx(ctx)
		return nil
	})
	s := dispatchSession()

	r.Dispatch(s, []byte(`{"seq":1,"type":"join"}`))
	require.NotEmpty(t, traced)
	assert.Equal(t, s.TraceID, traced)
	assert.Empty(t, TraceIDFromCtx(context.Background()))
}
