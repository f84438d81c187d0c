package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vendora/vendora/internal/models"
)

type fakeEventRepo struct {
	events    []models.OrderEvent
	published []uint64
}

func (f *fakeEventRepo) GetUnpublishedEvents(_ context.Context, limit int) ([]models.OrderEvent, error) {
	pending := []models.OrderEvent{}
	for _, event := range f.events {
		if event.PublishedAt == nil {
			pending = append(pending, event)
		}
		if len(pending) == limit {
			break
		}
	}
	return pending, nil
}

func (f *fakeEventRepo) MarkEventPublished(_ context.Context, id uint64) error {
	for i := range f.events {
		if f.events[i].ID == id {
			now := time.Now()
			f.events[i].PublishedAt = &now
			f.published = append(f.published, id)
			return nil
		}
	}
	return models.ErrDataNotFound
}

type fakePublisher struct {
	keys    []string
	failOn  string
	failErr error
}

func (f *fakePublisher) Publish(_ context.Context, key string, _ []byte) error {
	if key == f.failOn {
		return f.failErr
	}
	f.keys = append(f.keys, key)
	return nil
}

func pendingEvent(id uint64, orderID uuid.UUID) models.OrderEvent {
	return models.OrderEvent{
		ID:        id,
		OrderID:   orderID,
		EventType: models.EventOrderCreated,
		Payload:   []byte(`{}`),
		CreatedAt: time.Now(),
	}
}

func TestOutboxProcessor_Drain(t *testing.T) {
	first := uuid.New()
	second := uuid.New()

	repo := &fakeEventRepo{events: []models.OrderEvent{
		pendingEvent(1, first),
		pendingEvent(2, second),
	}}
	pub := &fakePublisher{}

	op := NewOutboxProcessor(repo, pub)
	require.NoError(t, op.drain(context.Background()))

	// published in insert order and marked as delivered
	assert.Equal(t, []string{first.String(), second.String()}, pub.keys)
	assert.Equal(t, []uint64{1, 2}, repo.published)

	// a second drain finds nothing to do
	require.NoError(t, op.drain(context.Background()))
	assert.Len(t, pub.keys, 2)
}

func TestOutboxProcessor_Drain_StopsOnPublishFailure(t *testing.T) {
	first := uuid.New()
	second := uuid.New()
	third := uuid.New()

	repo := &fakeEventRepo{events: []models.OrderEvent{
		pendingEvent(1, first),
		pendingEvent(2, second),
		pendingEvent(3, third),
	}}
	pub := &fakePublisher{failOn: second.String(), failErr: errors.New("broker unavailable")}

	op := NewOutboxProcessor(repo, pub)
	err := op.drain(context.Background())
	require.Error(t, err)

	// the failed event and everything after it stay pending
	assert.Equal(t, []uint64{1}, repo.published)
	assert.Nil(t, repo.events[1].PublishedAt)
	assert.Nil(t, repo.events[2].PublishedAt)

	// retry resumes from the failed event once the broker recovers
	pub.failOn = ""
	require.NoError(t, op.drain(context.Background()))
	assert.Equal(t, []uint64{1, 2, 3}, repo.published)
}
