package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"belleza/internal/config"
	"belleza/internal/events"

	"github.com/rs/zerolog"
)

// delivery is one webhook payload in flight, tracked across retries.
type delivery struct {
	EventType string          `json:"event_type"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
	attempts  int
}

// Notifier forwards appointment events to an external webhook. Events arrive
// through the bus, queue into a buffered channel and are delivered by a single
// goroutine with exponential-backoff retries. Exhausted deliveries are logged
// and dropped; a lost notification must never surface as a booking failure.
type Notifier struct {
	webhookURL  string
	client      *http.Client
	retryPolicy RetryPolicy
	queue       chan *delivery
	logger      zerolog.Logger
}

func NewNotifier(cfg config.NotifierConfig, logger zerolog.Logger) *Notifier {
	queueSize := cfg.QueueSize
	if queueSize <= 0 {
		queueSize = 1000
	}
	retry := RetryPolicy{
		MaxRetries:    cfg.MaxRetries,
		InitialDelay:  time.Duration(cfg.InitialDelay) * time.Second,
		MaxDelay:      time.Duration(cfg.MaxDelay) * time.Second,
		BackoffFactor: 2,
	}
	if retry.MaxRetries <= 0 {
		retry.MaxRetries = 5
	}
	if retry.InitialDelay <= 0 {
		retry.InitialDelay = 2 * time.Second
	}
	if retry.MaxDelay <= 0 {
		retry.MaxDelay = time.Minute
	}

	timeout := time.Duration(cfg.TimeoutSecond) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Notifier{
		webhookURL:  cfg.WebhookURL,
		client:      &http.Client{Timeout: timeout},
		retryPolicy: retry,
		queue:       make(chan *delivery, queueSize),
		logger:      logger,
	}
}

// SubscribeTo wires the notifier to the bus for both appointment events.
func (n *Notifier) SubscribeTo(bus *events.EventBus) {
	bus.Subscribe(events.EventAppointmentCreated, n.enqueue)
	bus.Subscribe(events.EventAppointmentStatusChanged, n.enqueue)
}

func (n *Notifier) enqueue(event *events.Event) error {
	if n.webhookURL == "" {
		return nil
	}
	d := &delivery{
		EventType: event.Type,
		Payload:   event.Payload,
		CreatedAt: event.CreatedAt,
	}
	select {
	case n.queue <- d:
		return nil
	default:
		n.logger.Warn().Str("event", event.Type).Msg("notifier queue full, event dropped")
		return fmt.Errorf("notifier queue full")
	}
}

// Start runs the delivery loop until ctx is done.
func (n *Notifier) Start(ctx context.Context) {
	n.logger.Info().Str("webhook", n.webhookURL).Msg("notifier started")
	defer n.logger.Info().Msg("notifier stopped")

	for {
		select {
		case <-ctx.Done():
			return
		case d := <-n.queue:
			n.deliver(ctx, d)
		}
	}
}

func (n *Notifier) deliver(ctx context.Context, d *delivery) {
	for {
		d.attempts++
		err := n.post(ctx, d)
		if err == nil {
			n.logger.Debug().
				Str("event", d.EventType).
				Int("attempts", d.attempts).
				Msg("webhook delivered")
			return
		}
		if ctx.Err() != nil {
			return
		}
		if d.attempts >= n.retryPolicy.MaxRetries {
			n.logger.Error().
				Err(err).
				Str("event", d.EventType).
				Int("attempts", d.attempts).
				RawJSON("payload", d.Payload).
				Msg("webhook delivery abandoned")
			return
		}

		delay := n.retryPolicy.NextDelay(d.attempts)
		n.logger.Warn().
			Err(err).
			Str("event", d.EventType).
			Dur("retry_in", delay).
			Msg("webhook delivery failed")

		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
	}
}

func (n *Notifier) post(ctx context.Context, d *delivery) error {
	body, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("encode delivery: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Belleza-Event", d.EventType)

	resp, err := n.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned %s", resp.Status)
	}
	return nil
}
