package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	kgo "github.com/segmentio/kafka-go"
)

// KafkaPublisher writes events to a topic, keyed by event type.
type KafkaPublisher struct {
	w *kgo.Writer
}

// NewKafkaPublisher creates a synchronous writer that waits for the leader ack.
func NewKafkaPublisher(brokers []string, topic string) (*KafkaPublisher, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("kafka: no brokers configured")
	}
	if topic == "" {
		return nil, fmt.Errorf("kafka: topic is required")
	}
	w := &kgo.Writer{
		Addr:                   kgo.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kgo.Hash{},
		RequiredAcks:           kgo.RequireOne,
		BatchTimeout:           50 * time.Millisecond,
		WriteTimeout:           5 * time.Second,
		AllowAutoTopicCreation: true,
	}
	return &KafkaPublisher{w: w}, nil
}

func message(evt Event) (kgo.Message, error) {
	body, err := json.Marshal(evt)
	if err != nil {
		return kgo.Message{}, fmt.Errorf("marshal %s event: %w", evt.Type, err)
	}
	return kgo.Message{
		Key:   []byte(evt.Type),
		Value: body,
		Time:  evt.OccurredAt,
	}, nil
}

func (p *KafkaPublisher) Publish(ctx context.Context, evt Event) error {
	msg, err := message(evt)
	if err != nil {
		return err
	}
	err = p.w.WriteMessages(ctx, msg)
	record("kafka", evt.Type, err)
	return err
}

func (p *KafkaPublisher) Close() error { return p.w.Close() }
