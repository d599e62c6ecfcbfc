package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// MutationMetrics содержит метрики мутационного слоя CRM.
type MutationMetrics struct {
	// Счётчики операций по имени и результату
	mutations *prometheus.CounterVec

	// Гистограммы времени выполнения мутаций
	mutationDuration *prometheus.HistogramVec

	// Счётчики элементов batch-мутаций
	batchElements *prometheus.CounterVec

	// Счётчик поставленных в outbox событий
	outboxEvents prometheus.Counter
}

// NewMutationMetrics создаёт новый экземпляр метрик мутаций.
func NewMutationMetrics() *MutationMetrics {
	return newMutationMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

func newMutationMetricsWithRegisterer(registerer prometheus.Registerer) *MutationMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &MutationMetrics{
		mutations: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "crm_mutations_total",
			Help: "Total number of mutation requests grouped by operation and result",
		}, []string{"operation", "result"}),
		mutationDuration: registerHistogramVec(registerer, prometheus.HistogramOpts{
			Name:    "crm_mutation_duration_seconds",
			Help:    "Duration of mutation requests in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
		batchElements: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "crm_batch_elements_total",
			Help: "Total number of batch mutation elements grouped by outcome",
		}, []string{"outcome"}),
		outboxEvents: registerCounter(registerer, prometheus.CounterOpts{
			Name: "crm_outbox_events_enqueued_total",
			Help: "Total number of events enqueued into the transactional outbox",
		}),
	}
}

func registerCounter(registerer prometheus.Registerer, opts prometheus.CounterOpts) prometheus.Counter {
	collector := prometheus.NewCounter(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Counter)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter %q: %v", opts.Name, err))
	}
	return collector
}

func registerCounterVec(registerer prometheus.Registerer, opts prometheus.CounterOpts, labels []string) *prometheus.CounterVec {
	collector := prometheus.NewCounterVec(opts, labels)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(*prometheus.CounterVec)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter vec %q: %v", opts.Name, err))
	}
	return collector
}

func registerHistogramVec(registerer prometheus.Registerer, opts prometheus.HistogramOpts, labels []string) *prometheus.HistogramVec {
	collector := prometheus.NewHistogramVec(opts, labels)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(*prometheus.HistogramVec)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register histogram vec %q: %v", opts.Name, err))
	}
	return collector
}

// RecordMutation увеличивает счётчик мутаций с меткой результата.
func (m *MutationMetrics) RecordMutation(operation string, success bool) {
	result := "success"
	if !success {
		result = "rejected"
	}
	m.mutations.WithLabelValues(operation, result).Inc()
}

// RecordMutationDuration записывает время выполнения мутации.
func (m *MutationMetrics) RecordMutationDuration(operation string, duration time.Duration) {
	m.mutationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordBatchElement учитывает исход одного элемента batch-мутации.
func (m *MutationMetrics) RecordBatchElement(created bool) {
	outcome := "created"
	if !created {
		outcome = "failed"
	}
	m.batchElements.WithLabelValues(outcome).Inc()
}

// RecordOutboxEvent увеличивает счётчик поставленных в outbox событий.
func (m *MutationMetrics) RecordOutboxEvent() {
	m.outboxEvents.Inc()
}
