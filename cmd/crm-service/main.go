package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/crm/internal/app"
)

const (
	envMetricsAddr        = "CRM_METRICS_ADDR"
	envPostgresDSN        = "CRM_POSTGRES_DSN"
	envKafkaBrokers       = "KAFKA_BROKERS"
	envOutboxPollInterval = "CRM_OUTBOX_POLL_INTERVAL"
)

// setupLogger настраивает формат и уровень логирования для сервиса.
func setupLogger() {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	log.SetLevel(log.InfoLevel)
}

// lookupFunc абстрагирует os.LookupEnv для тестируемости readConfigFromEnv.
type lookupFunc func(key string) (string, bool)

// mapLookup возвращает lookupFunc поверх map, используется в тестах.
func mapLookup(values map[string]string) lookupFunc {
	return func(key string) (string, bool) {
		value, ok := values[key]
		return value, ok
	}
}

// readConfigFromEnv формирует конфигурацию приложения из переменных окружения.
// Невалидные значения не прерывают запуск: поле остаётся со значением по
// умолчанию, а предупреждение возвращается вызывающей стороне.
func readConfigFromEnv(lookup lookupFunc) (app.Config, []string) {
	cfg := app.DefaultConfig()

	var warnings []string

	if value, ok := lookup(envMetricsAddr); ok && strings.TrimSpace(value) != "" {
		cfg.MetricsAddr = strings.TrimSpace(value)
	}
	if value, ok := lookup(envPostgresDSN); ok && strings.TrimSpace(value) != "" {
		cfg.PostgresDSN = strings.TrimSpace(value)
	}
	if value, ok := lookup(envKafkaBrokers); ok && strings.TrimSpace(value) != "" {
		cfg.KafkaBrokers = strings.TrimSpace(value)
	}
	if value, ok := lookup(envOutboxPollInterval); ok && strings.TrimSpace(value) != "" {
		interval, err := time.ParseDuration(strings.TrimSpace(value))
		if err != nil || interval <= 0 {
			warnings = append(warnings, fmt.Sprintf("%s: invalid duration %q, using default %s", envOutboxPollInterval, value, cfg.OutboxPollInterval))
		} else {
			cfg.OutboxPollInterval = interval
		}
	}

	return cfg, warnings
}

func main() {
	setupLogger()

	cfg, warnings := readConfigFromEnv(os.LookupEnv)
	for _, warning := range warnings {
		log.Warn(warning)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.WithFields(log.Fields{
		"metrics_addr": cfg.MetricsAddr,
		"storage":      storageLabel(cfg),
		"kafka":        cfg.KafkaBrokers != "",
	}).Info("запускаем CRM service")

	if err := app.Run(ctx, cfg); err != nil && !errors.Is(err, context.Canceled) {
		log.WithError(err).Fatal("приложение завершилось с ошибкой")
	}

	log.Info("CRM service остановлен")
}

// storageLabel возвращает человекочитаемое имя хранилища для стартового лога.
func storageLabel(cfg app.Config) string {
	if cfg.PostgresDSN != "" {
		return "postgres"
	}
	return "memory"
}
