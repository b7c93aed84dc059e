// Package notifier announces lottery lifecycle events to subscribers.
package notifier

import (
	"context"
	"fmt"
	"sync"
	"time"

	pubnub "github.com/pubnub/go"
	"golang.org/x/exp/slog"
)

// EventType names a lifecycle event
type EventType string

const (
	EventLotteryCreated    EventType = "lottery_created"
	EventTicketPurchased   EventType = "ticket_purchased"
	EventRandomnessRequest EventType = "randomness_requested"
	EventWinnerPicked      EventType = "winner_picked"
	EventPrizeReleased     EventType = "prize_released"
	EventLotteryCancelled  EventType = "lottery_cancelled"
)

// Event is one announcement about a lottery
type Event struct {
	Type      EventType      `json:"type"`
	LotteryID string         `json:"lottery_id"`
	Payload   map[string]any `json:"payload,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// Notifier publishes events. Delivery is best effort: callers log failures
// and never roll back a committed state change because of them.
type Notifier interface {
	Notify(ctx context.Context, event Event) error
}

// Channel returns the channel events of a lottery are published on
func Channel(lotteryID string) string {
	return fmt.Sprintf("lottery-%s", lotteryID)
}

// PubNubNotifier publishes events on per-lottery PubNub channels
type PubNubNotifier struct {
	pn *pubnub.PubNub
}

// NewPubNubNotifier creates a PubNubNotifier from keys
func NewPubNubNotifier(publishKey, subscribeKey, secretKey string) *PubNubNotifier {
	cfg := pubnub.NewConfig()
	cfg.PublishKey = publishKey
	cfg.SubscribeKey = subscribeKey
	cfg.SecretKey = secretKey
	return &PubNubNotifier{pn: pubnub.NewPubNub(cfg)}
}

// Notify implements Notifier
func (n *PubNubNotifier) Notify(ctx context.Context, event Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	_, status, err := n.pn.Publish().
		Channel(Channel(event.LotteryID)).
		Message(map[string]any{
			"type":       event.Type,
			"lottery_id": event.LotteryID,
			"payload":    event.Payload,
			"timestamp":  event.Timestamp.Unix(),
		}).
		Execute()
	if err != nil {
		return fmt.Errorf("failed to publish %s: %w", event.Type, err)
	}
	if status.Error != nil {
		return fmt.Errorf("failed to publish %s: %w", event.Type, status.Error)
	}
	return nil
}

// LogNotifier writes events to the structured log
type LogNotifier struct{}

// Notify implements Notifier
func (LogNotifier) Notify(ctx context.Context, event Event) error {
	slog.Info("Lottery event", "type", event.Type, "lottery", event.LotteryID, "payload", event.Payload)
	return nil
}

// MockNotifier records events for tests
type MockNotifier struct {
	mu     sync.Mutex
	events []Event
}

// Notify implements Notifier
func (m *MockNotifier) Notify(ctx context.Context, event Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return nil
}

// Events returns the recorded events
func (m *MockNotifier) Events() []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Event(nil), m.events...)
}

// Types returns the recorded event types in order
func (m *MockNotifier) Types() []EventType {
	events := m.Events()
	types := make([]EventType, 0, len(events))
	for _, e := range events {
		types = append(types, e.Type)
	}
	return types
}
