package memory

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/vladislavdragonenkov/crm/internal/domain"
)

const (
	outboxStatusPending = "pending"
	outboxStatusSent    = "sent"
	outboxStatusFailed  = "failed"
)

type outboxRepository struct {
	sess *txSession
}

// Enqueue сохраняет событие со статусом `pending` и возвращает его с идентификатором.
func (r *outboxRepository) Enqueue(msg domain.OutboxMessage) (domain.OutboxMessage, error) {
	d := r.sess.data
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	d.outbox[msg.ID] = &outboxRecord{
		msg:       msg,
		status:    outboxStatusPending,
		createdAt: now,
		updatedAt: now,
	}
	d.outboxOrder = append(d.outboxOrder, msg.ID)
	return msg, nil
}

// PullPending возвращает до limit сообщений со статусом `pending` в порядке постановки.
func (r *outboxRepository) PullPending(limit int) ([]domain.OutboxMessage, error) {
	if limit <= 0 {
		limit = 100
	}
	d := r.sess.data
	result := make([]domain.OutboxMessage, 0, limit)
	for _, id := range d.outboxOrder {
		rec := d.outbox[id]
		if rec.status != outboxStatusPending {
			continue
		}
		result = append(result, rec.msg)
		if len(result) >= limit {
			break
		}
	}
	return result, nil
}

func (r *outboxRepository) Stats() (domain.OutboxStats, error) {
	d := r.sess.data
	var stats domain.OutboxStats
	for _, id := range d.outboxOrder {
		rec := d.outbox[id]
		if rec.status != outboxStatusPending {
			continue
		}
		stats.PendingCount++
		if stats.OldestPendingAt.IsZero() || rec.createdAt.Before(stats.OldestPendingAt) {
			stats.OldestPendingAt = rec.createdAt
		}
	}
	return stats, nil
}

func (r *outboxRepository) MarkSent(id string) error {
	return r.markStatus(id, outboxStatusSent)
}

func (r *outboxRepository) MarkFailed(id string) error {
	return r.markStatus(id, outboxStatusFailed)
}

func (r *outboxRepository) markStatus(id, status string) error {
	rec, ok := r.sess.data.outbox[id]
	if !ok {
		return fmt.Errorf("outbox message %s not found", id)
	}
	rec.status = status
	rec.updatedAt = time.Now().UTC()
	return nil
}

type lockedOutbox struct {
	store *Store
}

func (l *lockedOutbox) Enqueue(msg domain.OutboxMessage) (domain.OutboxMessage, error) {
	l.store.mu.Lock()
	defer l.store.mu.Unlock()
	return (&outboxRepository{sess: &txSession{data: l.store.data}}).Enqueue(msg)
}

func (l *lockedOutbox) PullPending(limit int) ([]domain.OutboxMessage, error) {
	l.store.mu.Lock()
	defer l.store.mu.Unlock()
	return (&outboxRepository{sess: &txSession{data: l.store.data}}).PullPending(limit)
}

func (l *lockedOutbox) Stats() (domain.OutboxStats, error) {
	l.store.mu.Lock()
	defer l.store.mu.Unlock()
	return (&outboxRepository{sess: &txSession{data: l.store.data}}).Stats()
}

func (l *lockedOutbox) MarkSent(id string) error {
	l.store.mu.Lock()
	defer l.store.mu.Unlock()
	return (&outboxRepository{sess: &txSession{data: l.store.data}}).MarkSent(id)
}

func (l *lockedOutbox) MarkFailed(id string) error {
	l.store.mu.Lock()
	defer l.store.mu.Unlock()
	return (&outboxRepository{sess: &txSession{data: l.store.data}}).MarkFailed(id)
}

var (
	_ domain.OutboxRepository = (*outboxRepository)(nil)
	_ domain.OutboxRepository = (*lockedOutbox)(nil)
)
