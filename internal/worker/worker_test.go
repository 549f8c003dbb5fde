package worker

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"belleza/internal/config"
	"belleza/internal/events"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetryPolicyNextDelay(t *testing.T) {
	policy := RetryPolicy{
		MaxRetries:    5,
		InitialDelay:  time.Second,
		MaxDelay:      10 * time.Second,
		BackoffFactor: 2,
	}

	assert.Equal(t, time.Second, policy.NextDelay(1))
	assert.Equal(t, 2*time.Second, policy.NextDelay(2))
	assert.Equal(t, 4*time.Second, policy.NextDelay(3))
	assert.Equal(t, 10*time.Second, policy.NextDelay(6), "clamped at max delay")
	assert.Equal(t, time.Second, policy.NextDelay(0), "attempt below 1 is treated as 1")
}

func TestRetryPolicyDefaults(t *testing.T) {
	var policy RetryPolicy
	assert.Equal(t, time.Second, policy.NextDelay(1))
	assert.Equal(t, 2*time.Second, policy.NextDelay(2))
}

func newTestNotifier(url string) *Notifier {
	n := NewNotifier(config.NotifierConfig{WebhookURL: url, QueueSize: 16}, zerolog.Nop())
	n.retryPolicy = RetryPolicy{MaxRetries: 3, InitialDelay: 5 * time.Millisecond, MaxDelay: 20 * time.Millisecond, BackoffFactor: 2}
	return n
}

func TestNotifierDeliversEvent(t *testing.T) {
	received := make(chan delivery, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var d delivery
		require.NoError(t, json.NewDecoder(r.Body).Decode(&d))
		assert.Equal(t, events.EventAppointmentCreated, r.Header.Get("X-Belleza-Event"))
		received <- d
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	notifier := newTestNotifier(srv.URL)
	bus := events.NewEventBus()
	notifier.SubscribeTo(bus)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go notifier.Start(ctx)

	require.NoError(t, bus.PublishJSON(events.EventAppointmentCreated, events.AppointmentEventPayload{
		AppointmentID: 7,
		Ref:           "abc",
		Status:        "scheduled",
	}))

	select {
	case d := <-received:
		assert.Equal(t, events.EventAppointmentCreated, d.EventType)
		var payload events.AppointmentEventPayload
		require.NoError(t, json.Unmarshal(d.Payload, &payload))
		assert.Equal(t, int64(7), payload.AppointmentID)
	case <-time.After(2 * time.Second):
		t.Fatal("webhook never received the event")
	}
}

func TestNotifierRetriesUntilSuccess(t *testing.T) {
	var calls atomic.Int32
	done := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
		close(done)
	}))
	defer srv.Close()

	notifier := newTestNotifier(srv.URL)
	bus := events.NewEventBus()
	notifier.SubscribeTo(bus)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go notifier.Start(ctx)

	require.NoError(t, bus.PublishJSON(events.EventAppointmentStatusChanged, events.AppointmentEventPayload{AppointmentID: 1}))

	select {
	case <-done:
		assert.Equal(t, int32(3), calls.Load())
	case <-time.After(2 * time.Second):
		t.Fatal("delivery was not retried to success")
	}
}

func TestNotifierGivesUpAfterMaxRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	notifier := newTestNotifier(srv.URL)
	bus := events.NewEventBus()
	notifier.SubscribeTo(bus)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go notifier.Start(ctx)

	require.NoError(t, bus.PublishJSON(events.EventAppointmentCreated, events.AppointmentEventPayload{AppointmentID: 1}))

	assert.Eventually(t, func() bool {
		return calls.Load() == 3
	}, 2*time.Second, 10*time.Millisecond)

	// No further attempts after the policy is exhausted.
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(3), calls.Load())
}

func TestNotifierWithoutWebhookDropsSilently(t *testing.T) {
	notifier := NewNotifier(config.NotifierConfig{}, zerolog.Nop())
	bus := events.NewEventBus()
	notifier.SubscribeTo(bus)

	require.NoError(t, bus.PublishJSON(events.EventAppointmentCreated, events.AppointmentEventPayload{AppointmentID: 1}))
	assert.Empty(t, notifier.queue)
}
