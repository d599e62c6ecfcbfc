package crm

import (
	"encoding/json"
	"fmt"

	"github.com/vladislavdragonenkov/crm/internal/domain"
	"github.com/vladislavdragonenkov/crm/internal/messaging/kafka"
)

// Типы событий мутационного слоя; публикуются outbox-воркером после коммита.
const (
	eventCustomerCreated = kafka.EventTypeCustomerCreated
	eventProductCreated  = kafka.EventTypeProductCreated
	eventOrderCreated    = kafka.EventTypeOrderCreated
)

// enqueueRecordEvent ставит событие в transactional outbox в том же
// транзакционном контексте, что и создание записи.
func enqueueRecordEvent(store domain.Store, aggregateType, aggregateID, eventType string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", eventType, err)
	}

	_, err = store.Outbox().Enqueue(domain.OutboxMessage{
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		EventType:     eventType,
		Payload:       body,
	})
	if err != nil {
		return fmt.Errorf("enqueue %s event: %w", eventType, err)
	}
	return nil
}
