package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/vaxportal/booking-api/internal/model"
	"github.com/vaxportal/booking-api/internal/repository"
	"github.com/vaxportal/booking-api/pkg/logger"
	"github.com/vaxportal/booking-api/pkg/messaging"
	"github.com/vaxportal/booking-api/pkg/metrics"
)

type OutboxProcessorConfig struct {
	BatchSize    int
	PollInterval time.Duration
	// MaxAttempts bounds delivery attempts per event across polls. Once
	// exceeded the event is parked as failed for operator attention.
	MaxAttempts int
	// RetryDelay is the base backoff between delivery attempts; the actual
	// delay grows linearly with the attempt count.
	RetryDelay time.Duration
}

// OutboxProcessor drains booking events from the transactional outbox and
// publishes them to the broker. Events are claimed with FOR UPDATE SKIP
// LOCKED so concurrent worker instances mostly pick disjoint batches, but
// the claim and the status update are separate statements: delivery is
// at-least-once and consumers must tolerate duplicates.
type OutboxProcessor struct {
	repo    repository.OutboxRepository
	broker  messaging.Broker
	config  OutboxProcessorConfig
	logger  *logger.Logger
	metrics *metrics.Metrics
}

func NewOutboxProcessor(
	repo repository.OutboxRepository,
	broker messaging.Broker,
	config OutboxProcessorConfig,
	logger *logger.Logger,
	metrics *metrics.Metrics,
) *OutboxProcessor {
	if config.BatchSize <= 0 {
		config.BatchSize = 100
	}
	if config.PollInterval <= 0 {
		config.PollInterval = 5 * time.Second
	}
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = 3
	}
	if config.RetryDelay <= 0 {
		config.RetryDelay = time.Second
	}

	return &OutboxProcessor{
		repo:    repo,
		broker:  broker,
		config:  config,
		logger:  logger,
		metrics: metrics,
	}
}

func (p *OutboxProcessor) Start(ctx context.Context) {
	ticker := time.NewTicker(p.config.PollInterval)
	defer ticker.Stop()

	p.logger.Info("starting outbox processor",
		"batch_size", p.config.BatchSize,
		"poll_interval", p.config.PollInterval.String())

	for {
		if err := p.drainBatch(ctx); err != nil {
			p.logger.Error(err, "outbox batch failed")
		}

		select {
		case <-ctx.Done():
			p.logger.Info("stopping outbox processor")
			return
		case <-ticker.C:
		}
	}
}

func (p *OutboxProcessor) drainBatch(ctx context.Context) error {
	timer := prometheus.NewTimer(p.metrics.OutboxProcessingLatency)
	defer timer.ObserveDuration()

	events, err := p.repo.GetPendingEventsWithLock(ctx, p.config.BatchSize)
	if err != nil {
		p.metrics.DatabaseOperations.WithLabelValues("get_pending_events", "error").Inc()
		return fmt.Errorf("failed to claim pending events: %w", err)
	}
	p.metrics.DatabaseOperations.WithLabelValues("get_pending_events", "success").Inc()

	for _, event := range events {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		p.deliver(ctx, event)
	}

	return nil
}

// deliver publishes one event and records the outcome. A failed publish
// schedules a deferred retry with linear backoff until MaxAttempts is
// exhausted, then parks the event as failed.
func (p *OutboxProcessor) deliver(ctx context.Context, event *model.OutboxEvent) {
	err := p.broker.Publish(ctx, event.EventType, event.Payload)
	if err == nil {
		p.metrics.OutboxEventsProcessed.Inc()
		if updateErr := p.repo.UpdateStatusTx(ctx, nil, event.ID, string(model.OutboxStatusProcessed), nil, nil); updateErr != nil {
			p.logger.Error(updateErr, "failed to mark event processed",
				"event_id", event.ID.String())
		}
		return
	}

	p.metrics.OutboxEventsFailed.Inc()
	errStr := err.Error()

	attempt := event.RetryCount + 1
	if attempt >= p.config.MaxAttempts {
		p.logger.Error(err, "event delivery exhausted, parking as failed",
			"event_id", event.ID.String(),
			"event_type", event.EventType,
			"attempts", attempt)
		if updateErr := p.repo.UpdateStatusTx(ctx, nil, event.ID, string(model.OutboxStatusFailed), &errStr, nil); updateErr != nil {
			p.logger.Error(updateErr, "failed to mark event failed",
				"event_id", event.ID.String())
		}
		return
	}

	retryAt := time.Now().Add(time.Duration(attempt) * p.config.RetryDelay)
	p.logger.Warn("event delivery failed, scheduling retry",
		"event_id", event.ID.String(),
		"event_type", event.EventType,
		"attempt", attempt,
		"retry_at", retryAt.Format(time.RFC3339))
	if updateErr := p.repo.UpdateStatusTx(ctx, nil, event.ID, string(model.OutboxStatusRetry), &errStr, &retryAt); updateErr != nil {
		p.logger.Error(updateErr, "failed to schedule event retry",
			"event_id", event.ID.String())
	}
}
