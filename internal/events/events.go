package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-kafka/v2/pkg/kafka"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
)

// Collections that publish change events.
const (
	CollectionCourses       = "courses"
	CollectionEvents        = "events"
	CollectionAnnouncements = "announcements"
)

type Operation string

const (
	OpCreated Operation = "created"
	OpUpdated Operation = "updated"
	OpDeleted Operation = "deleted"
)

// ChangeEvent announces that a document in a collection changed.
type ChangeEvent struct {
	Collection string    `json:"collection"`
	ID         string    `json:"id"`
	Op         Operation `json:"op"`
	Version    int       `json:"version,omitempty"`
	At         time.Time `json:"at"`
}

// IsWatchable reports whether collection has a change feed.
func IsWatchable(collection string) bool {
	switch collection {
	case CollectionCourses, CollectionEvents, CollectionAnnouncements:
		return true
	}
	return false
}

func topic(collection string) string {
	return "lms.changes." + collection
}

// Bus publishes and fans out change events over watermill.
type Bus struct {
	publisher  message.Publisher
	subscriber message.Subscriber
	shared     bool // publisher and subscriber are the same pub/sub
	logger     *slog.Logger
}

// NewInProcessBus delivers events only within this process.
func NewInProcessBus(logger *slog.Logger) *Bus {
	pubSub := gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer: 64,
	}, watermill.NewSlogLogger(logger))

	return &Bus{
		publisher:  pubSub,
		subscriber: pubSub,
		shared:     true,
		logger:     logger.With("component", "change_bus"),
	}
}

// NewKafkaBus shares events across instances through Kafka. Subscriptions
// use no consumer group so every watcher sees every event.
func NewKafkaBus(brokers []string, logger *slog.Logger) (*Bus, error) {
	wmLogger := watermill.NewSlogLogger(logger)

	publisher, err := kafka.NewPublisher(kafka.PublisherConfig{
		Brokers:   brokers,
		Marshaler: kafka.DefaultMarshaler{},
	}, wmLogger)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka publisher: %w", err)
	}

	saramaCfg := kafka.DefaultSaramaSubscriberConfig()
	subscriber, err := kafka.NewSubscriber(kafka.SubscriberConfig{
		Brokers:               brokers,
		Unmarshaler:           kafka.DefaultMarshaler{},
		OverwriteSaramaConfig: saramaCfg,
	}, wmLogger)
	if err != nil {
		_ = publisher.Close()
		return nil, fmt.Errorf("failed to create kafka subscriber: %w", err)
	}

	return &Bus{
		publisher:  publisher,
		subscriber: subscriber,
		logger:     logger.With("component", "change_bus"),
	}, nil
}

// PublishChange sends evt on its collection topic.
func (b *Bus) PublishChange(ctx context.Context, evt ChangeEvent) error {
	if evt.At.IsZero() {
		evt.At = time.Now().UTC()
	}

	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("failed to marshal change event: %w", err)
	}

	msg := message.NewMessage(uuid.NewString(), payload)
	msg.SetContext(ctx)
	msg.Metadata.Set("collection", evt.Collection)
	msg.Metadata.Set("op", string(evt.Op))

	if err := b.publisher.Publish(topic(evt.Collection), msg); err != nil {
		return fmt.Errorf("failed to publish change event: %w", err)
	}
	return nil
}

// Subscribe streams change events for collection until ctx is cancelled.
// The returned channel is closed when the subscription ends.
func (b *Bus) Subscribe(ctx context.Context, collection string) (<-chan ChangeEvent, error) {
	if !IsWatchable(collection) {
		return nil, fmt.Errorf("collection %q has no change feed", collection)
	}

	messages, err := b.subscriber.Subscribe(ctx, topic(collection))
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to %s: %w", collection, err)
	}

	out := make(chan ChangeEvent)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-messages:
				if !ok {
					return
				}

				var evt ChangeEvent
				if err := json.Unmarshal(msg.Payload, &evt); err != nil {
					b.logger.Warn("Dropping malformed change event", "error", err, "message_uuid", msg.UUID)
					msg.Ack()
					continue
				}

				select {
				case out <- evt:
					msg.Ack()
				case <-ctx.Done():
					msg.Nack()
					return
				}
			}
		}
	}()
	return out, nil
}

func (b *Bus) Close() error {
	if err := b.publisher.Close(); err != nil {
		return err
	}
	if b.shared {
		return nil
	}
	return b.subscriber.Close()
}
