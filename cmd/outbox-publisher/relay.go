package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/freshbox/freshbox-backend/pkg/config"
	"github.com/freshbox/freshbox-backend/pkg/db/models"
	"github.com/freshbox/freshbox-backend/pkg/enums"
	"github.com/freshbox/freshbox-backend/pkg/logger"
	"github.com/freshbox/freshbox-backend/pkg/outbox/payloads"
	"github.com/freshbox/freshbox-backend/pkg/outbox/registry"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	defaultBatchSize   = 50
	defaultPollMs      = 500
	defaultMaxAttempts = 10
	sendTimeout        = 15 * time.Second
	maxBackoff         = 10 * time.Second
	jitterWindow       = 250 * time.Millisecond
)

type dbClient interface {
	Ping(context.Context) error
	WithTx(context.Context, func(tx *gorm.DB) error) error
}

type pubSubClient interface {
	Ping(context.Context) error
	Publisher(name string) *gcppubsub.Publisher
}

type eventStore interface {
	FetchUnpublishedForPublish(tx *gorm.DB, limit, maxAttempts int) ([]models.OutboxEvent, error)
	MarkPublishedTx(tx *gorm.DB, id uuid.UUID) error
	MarkFailedTx(tx *gorm.DB, id uuid.UUID, err error) error
	MarkTerminalTx(tx *gorm.DB, id uuid.UUID, err error, terminalAttempts int) error
}

type deadLetterStore interface {
	InsertTx(tx *gorm.DB, entry models.OutboxDLQ) error
}

type eventResolver interface {
	Resolve(models.OutboxEvent) (*registry.ResolvedEvent, error)
}

// topicSender publishes to one topic and returns a handle for the server ack.
type topicSender interface {
	Publish(context.Context, *gcppubsub.Message) sendResult
}

type sendResult interface {
	Get(context.Context) (string, error)
}

type relayMetrics interface {
	Relayed(eventType string)
	Failed(eventType string, terminal bool)
}

type RelayParams struct {
	Config      *config.Config
	Logger      *logger.Logger
	DB          dbClient
	PubSub      pubSubClient
	Events      eventStore
	Resolver    eventResolver
	DeadLetters deadLetterStore
	Metrics     relayMetrics
	// Senders overrides the Pub/Sub publisher lookup, mainly for tests.
	Senders func(topic string) topicSender
}

// Relay moves committed order events from the outbox table to Pub/Sub. Each
// batch is claimed and settled inside one transaction.
type Relay struct {
	logg        *logger.Logger
	db          dbClient
	pubsub      pubSubClient
	events      eventStore
	resolver    eventResolver
	deadLetters deadLetterStore
	metrics     relayMetrics
	senders     func(topic string) topicSender

	batchSize   int
	maxAttempts int
	interval    time.Duration
}

func NewRelay(p RelayParams) (*Relay, error) {
	switch {
	case p.Config == nil:
		return nil, errors.New("config is required")
	case p.Logger == nil:
		return nil, errors.New("logger is required")
	case p.DB == nil:
		return nil, errors.New("database client is required")
	case p.PubSub == nil:
		return nil, errors.New("pubsub client is required")
	case p.Events == nil:
		return nil, errors.New("outbox repository is required")
	case p.Resolver == nil:
		return nil, errors.New("event registry is required")
	case p.DeadLetters == nil:
		return nil, errors.New("dlq repository is required")
	}

	senders := p.Senders
	if senders == nil {
		senders = func(topic string) topicSender {
			if pub := p.PubSub.Publisher(topic); pub != nil {
				return pubsubSender{pub}
			}
			return nil
		}
	}

	out := p.Config.Outbox
	return &Relay{
		logg:        p.Logger,
		db:          p.DB,
		pubsub:      p.PubSub,
		events:      p.Events,
		resolver:    p.Resolver,
		deadLetters: p.DeadLetters,
		metrics:     p.Metrics,
		senders:     senders,
		batchSize:   positiveOr(out.BatchSize, defaultBatchSize),
		maxAttempts: positiveOr(out.MaxAttempts, defaultMaxAttempts),
		interval:    time.Duration(positiveOr(out.PollIntervalMS, defaultPollMs)) * time.Millisecond,
	}, nil
}

func positiveOr(v, fallback int) int {
	if v > 0 {
		return v
	}
	return fallback
}

// Run checks the database and topic, then relays until ctx is cancelled.
// A failing batch doubles the wait up to maxBackoff; an empty one waits one
// interval; a full one is followed immediately by the next.
func (r *Relay) Run(ctx context.Context) error {
	deps := []struct {
		name string
		ping func(context.Context) error
	}{{"database", r.db.Ping}, {"pubsub", r.pubsub.Ping}}
	for _, dep := range deps {
		if err := dep.ping(ctx); err != nil {
			r.logg.Error(ctx, dep.name+" ping failed", err)
			return fmt.Errorf("%s ping failed: %w", dep.name, err)
		}
	}

	wait := r.interval
	for {
		if ctx.Err() != nil {
			r.logg.Info(ctx, "order event relay stopping")
			return ctx.Err()
		}

		handled, err := r.relayBatch(ctx)
		switch {
		case err != nil:
			r.logg.Error(ctx, "order event batch failed", err)
			wait = min(wait*2, maxBackoff)
		case handled > 0:
			wait = r.interval
			continue
		default:
			wait = r.interval
		}

		if err := sleepCtx(ctx, wait+rand.N(jitterWindow)); err != nil {
			return err
		}
	}
}

type relayOutcome int

const (
	outcomeRelayed relayOutcome = iota
	outcomeRetry
	outcomeDeadLettered
)

// relayBatch claims up to batchSize events and settles each one. It returns
// how many events were claimed.
func (r *Relay) relayBatch(ctx context.Context) (int, error) {
	handled := 0
	err := r.db.WithTx(ctx, func(tx *gorm.DB) error {
		events, err := r.events.FetchUnpublishedForPublish(tx, r.batchSize, r.maxAttempts)
		if err != nil {
			return fmt.Errorf("claim outbox events: %w", err)
		}
		handled = len(events)
		for _, event := range events {
			if _, err := r.relayOne(ctx, tx, event); err != nil {
				return err
			}
		}
		return nil
	})
	return handled, err
}

// relayOne publishes a single event and records the result on its row. The
// returned error is only set when the row itself could not be updated.
func (r *Relay) relayOne(ctx context.Context, tx *gorm.DB, event models.OutboxEvent) (relayOutcome, error) {
	logCtx := r.logg.WithFields(ctx, orderFields(event, nil))

	resolved, err := r.resolver.Resolve(event)
	if err != nil {
		return outcomeDeadLettered, r.deadLetter(logCtx, tx, event, enums.OutboxDLQReasonNonRetryable, err)
	}
	logCtx = r.logg.WithFields(ctx, orderFields(event, resolved))

	messageID, err := r.send(ctx, event, resolved)
	if err == nil {
		if err := r.events.MarkPublishedTx(tx, event.ID); err != nil {
			return outcomeRelayed, fmt.Errorf("mark published %s: %w", event.ID, err)
		}
		r.countRelayed(event.EventType)
		r.logg.Info(r.logg.WithField(logCtx, "message_id", messageID), "order event relayed")
		return outcomeRelayed, nil
	}

	var permanent registry.NonRetryableError
	if errors.As(err, &permanent) {
		return outcomeDeadLettered, r.deadLetter(logCtx, tx, event, enums.OutboxDLQReasonNonRetryable, err)
	}
	attempt := event.AttemptCount + 1
	if attempt >= r.maxAttempts {
		err = fmt.Errorf("gave up after %d attempts: %w", attempt, err)
		return outcomeDeadLettered, r.deadLetter(logCtx, tx, event, enums.OutboxDLQReasonMaxAttempts, err)
	}

	r.logg.Warn(r.logg.WithFields(logCtx, map[string]any{
		"attempt": attempt,
		"error":   err.Error(),
	}), "order event relay failed, will retry")
	if markErr := r.events.MarkFailedTx(tx, event.ID, err); markErr != nil {
		return outcomeRetry, fmt.Errorf("mark failed %s: %w", event.ID, markErr)
	}
	r.countFailed(event.EventType, false)
	return outcomeRetry, nil
}

// send publishes the stored envelope unchanged and waits for the server id.
func (r *Relay) send(ctx context.Context, event models.OutboxEvent, resolved *registry.ResolvedEvent) (string, error) {
	topic := resolved.Descriptor.Topic
	sender := r.senders(topic)
	if sender == nil {
		return "", registry.NewNonRetryableError(fmt.Errorf("no publisher for topic %s", topic))
	}

	attrs := map[string]string{
		"event_id":       resolved.Envelope.EventID,
		"event_type":     string(event.EventType),
		"aggregate_type": string(event.AggregateType),
		"aggregate_id":   event.AggregateID.String(),
		"created_at":     event.CreatedAt.Format(time.RFC3339Nano),
	}
	if number := orderNumber(resolved.Payload); number != "" {
		attrs["order_number"] = number
	}

	sendCtx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()
	result := sender.Publish(sendCtx, &gcppubsub.Message{Data: event.Payload, Attributes: attrs})
	if result == nil {
		return "", registry.NewNonRetryableError(fmt.Errorf("publisher for topic %s returned no result", topic))
	}
	return result.Get(sendCtx)
}

// deadLetter copies the event to the DLQ and stops further attempts.
func (r *Relay) deadLetter(ctx context.Context, tx *gorm.DB, event models.OutboxEvent, reason enums.OutboxDLQErrorReason, cause error) error {
	r.logg.Warn(r.logg.WithFields(ctx, map[string]any{
		"error_reason": reason,
		"error":        cause.Error(),
	}), "order event dead-lettered")

	msg := cause.Error()
	entry := models.OutboxDLQ{
		EventID:       event.ID,
		EventType:     event.EventType,
		AggregateType: event.AggregateType,
		AggregateID:   event.AggregateID,
		Payload:       event.Payload,
		ErrorReason:   reason,
		ErrorMessage:  &msg,
		AttemptCount:  event.AttemptCount,
		FailedAt:      time.Now().UTC(),
	}
	if err := r.deadLetters.InsertTx(tx, entry); err != nil {
		return fmt.Errorf("insert dlq %s: %w", event.ID, err)
	}
	if err := r.events.MarkTerminalTx(tx, event.ID, cause, r.maxAttempts); err != nil {
		return fmt.Errorf("mark terminal %s: %w", event.ID, err)
	}
	r.countFailed(event.EventType, true)
	return nil
}

func (r *Relay) countRelayed(eventType enums.OutboxEventType) {
	if r.metrics != nil {
		r.metrics.Relayed(string(eventType))
	}
}

func (r *Relay) countFailed(eventType enums.OutboxEventType, terminal bool) {
	if r.metrics != nil {
		r.metrics.Failed(string(eventType), terminal)
	}
}

func orderFields(event models.OutboxEvent, resolved *registry.ResolvedEvent) map[string]any {
	fields := map[string]any{
		"outbox_id":     event.ID.String(),
		"event_type":    event.EventType,
		"attempt_count": event.AttemptCount,
	}
	if event.AggregateType == enums.AggregateOrder {
		fields["order_id"] = event.AggregateID.String()
	} else {
		fields["aggregate_type"] = event.AggregateType
		fields["aggregate_id"] = event.AggregateID.String()
	}
	if resolved != nil {
		fields["topic"] = resolved.Descriptor.Topic
		if number := orderNumber(resolved.Payload); number != "" {
			fields["order_number"] = number
		}
	}
	return fields
}

func orderNumber(payload any) string {
	switch p := payload.(type) {
	case *payloads.OrderPaidEvent:
		return p.OrderNumber
	case *payloads.OrderPaymentFailedEvent:
		return p.OrderNumber
	default:
		return ""
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// pubsubSender adapts a Pub/Sub publisher to topicSender.
type pubsubSender struct {
	pub *gcppubsub.Publisher
}

func (s pubsubSender) Publish(ctx context.Context, msg *gcppubsub.Message) sendResult {
	return s.pub.Publish(ctx, msg)
}
