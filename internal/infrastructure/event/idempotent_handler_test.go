package event

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thrylos/backend/internal/domain/shared"
	"go.uber.org/zap"
)

type fakeIdempotencyStore struct {
	processed map[string]bool
	failWith  error
}

func newFakeIdempotencyStore() *fakeIdempotencyStore {
	return &fakeIdempotencyStore{processed: make(map[string]bool)}
}

func (s *fakeIdempotencyStore) MarkProcessed(ctx context.Context, eventID string, ttl time.Duration) (bool, error) {
	if s.failWith != nil {
		return false, s.failWith
	}
	if s.processed[eventID] {
		return false, nil
	}
	s.processed[eventID] = true
	return true, nil
}

func (s *fakeIdempotencyStore) IsProcessed(ctx context.Context, eventID string) (bool, error) {
	return s.processed[eventID], nil
}

func (s *fakeIdempotencyStore) Close() error { return nil }

func TestIdempotentHandler_SkipsDuplicateDelivery(t *testing.T) {
	inner := &recordingHandler{types: []string{"ServiceRequestAssigned"}}
	handler := NewIdempotentHandler(inner, newFakeIdempotencyStore(), zap.NewNop())

	evt := newTestEvent("ServiceRequestAssigned")

	require.NoError(t, handler.Handle(context.Background(), evt))
	require.NoError(t, handler.Handle(context.Background(), evt))

	assert.Equal(t, 1, inner.seen())
}

func TestIdempotentHandler_DistinctEventsBothProcessed(t *testing.T) {
	inner := &recordingHandler{types: []string{"ServiceRequestAssigned"}}
	handler := NewIdempotentHandler(inner, newFakeIdempotencyStore(), zap.NewNop())

	require.NoError(t, handler.Handle(context.Background(), newTestEvent("ServiceRequestAssigned")))
	require.NoError(t, handler.Handle(context.Background(), newTestEvent("ServiceRequestAssigned")))

	assert.Equal(t, 2, inner.seen())
}

func TestIdempotentHandler_StoreFailureStillProcesses(t *testing.T) {
	inner := &recordingHandler{types: []string{"ServiceRequestAssigned"}}
	store := newFakeIdempotencyStore()
	store.failWith = errors.New("redis unavailable")
	handler := NewIdempotentHandler(inner, store, zap.NewNop())

	require.NoError(t, handler.Handle(context.Background(), newTestEvent("ServiceRequestAssigned")))
	assert.Equal(t, 1, inner.seen())
}

func TestIdempotentHandler_Disabled(t *testing.T) {
	inner := &recordingHandler{types: []string{"ServiceRequestAssigned"}}
	store := newFakeIdempotencyStore()
	handler := NewIdempotentHandler(inner, store, zap.NewNop(),
		WithIdempotencyConfig(shared.IdempotencyConfig{Enabled: false}))

	evt := newTestEvent("ServiceRequestAssigned")
	require.NoError(t, handler.Handle(context.Background(), evt))
	require.NoError(t, handler.Handle(context.Background(), evt))

	assert.Equal(t, 2, inner.seen())
	assert.Empty(t, store.processed)
}

func TestIdempotentHandler_PropagatesHandlerError(t *testing.T) {
	inner := &recordingHandler{types: []string{"ServiceRequestAssigned"}, err: errors.New("boom")}
	handler := NewIdempotentHandler(inner, newFakeIdempotencyStore(), zap.NewNop())

	err := handler.Handle(context.Background(), newTestEvent("ServiceRequestAssigned"))
	assert.Error(t, err)
}
