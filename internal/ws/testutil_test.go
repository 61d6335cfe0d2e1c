package ws

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"messaging-service/internal/models"
)

// fakeConn records every envelope written to it and can be told to fail.
type fakeConn struct {
	mu         sync.Mutex
	frames     []models.Envelope
	failWrites bool
	closed     bool
}

func (f *fakeConn) WriteJSON(v any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWrites {
		return errors.New("write failed")
	}
	env, ok := v.(models.Envelope)
	if !ok {
		return errors.New("unexpected frame type")
	}
	f.frames = append(f.frames, env)
	return nil
}

func (f *fakeConn) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeConn) framesFor(event string) []models.Envelope {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Envelope
	for _, env := range f.frames {
		if env.Event == event {
			out = append(out, env)
		}
	}
	return out
}

func (f *fakeConn) frameCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.frames)
}

func decodePayload[T any](t *testing.T, env models.Envelope) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(env.Data, &v); err != nil {
		t.Fatalf("decode %s payload: %v", env.Event, err)
	}
	return v
}
