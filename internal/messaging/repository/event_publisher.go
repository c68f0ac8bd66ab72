package repository

import (
	"context"
	"encoding/json"

	"event_messaging_service/internal/messaging/domain"

	"github.com/segmentio/kafka-go"
)

// EventPublisher streams message-sent events to other services.
type EventPublisher interface {
	PublishMessageSent(ctx context.Context, evt domain.MessageSentEvent) error
}

type kafkaEventPublisher struct {
	writer *kafka.Writer
}

// NewKafkaEventPublisher create an EventPublisher over a kafka writer
func NewKafkaEventPublisher(writer *kafka.Writer) EventPublisher {
	return &kafkaEventPublisher{writer: writer}
}

func (p *kafkaEventPublisher) PublishMessageSent(ctx context.Context, evt domain.MessageSentEvent) error {
	value, err := json.Marshal(evt)
	if err != nil {
		return err
	}

	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(evt.EventID),
		Value: value,
	})
}
