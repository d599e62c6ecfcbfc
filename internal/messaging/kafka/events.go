package kafka

import "time"

// EventType определяет тип события
type EventType string

const (
	// События записей CRM
	EventTypeCustomerCreated EventType = "customer.created"
	EventTypeProductCreated  EventType = "product.created"
	EventTypeOrderCreated    EventType = "order.created"
)

// Topics для Kafka
const (
	TopicRecordEvents    = "crm.record.events"
	TopicDeadLetterQueue = "crm.dlq" // Dead Letter Queue для failed messages
)

// Kafka headers для retry логики
const (
	HeaderRetryCount    = "x-retry-count"
	HeaderOriginalTopic = "x-original-topic"
	HeaderErrorMessage  = "x-error-message"
	HeaderFailedAt      = "x-failed-at"
)

// RecordEvent представляет событие создания записи CRM
type RecordEvent struct {
	EventType EventType              `json:"event_type"`
	RecordID  string                 `json:"record_id"`
	Timestamp time.Time              `json:"timestamp"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// NewRecordEvent создает новое событие записи
func NewRecordEvent(eventType EventType, recordID string, metadata map[string]interface{}) *RecordEvent {
	return &RecordEvent{
		EventType: eventType,
		RecordID:  recordID,
		Timestamp: time.Now(),
		Metadata:  metadata,
	}
}
