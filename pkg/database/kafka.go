package database

import (
	"context"
	"fmt"
	"time"

	errprocess "event_messaging_service/pkg/err"
	"event_messaging_service/pkg/logger"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// NewKafkaWriterWithRetry builds a Kafka writer and sends a probe message to verify the connection.
func NewKafkaWriterWithRetry(k KafkaConnection) (*kafka.Writer, error) {
	var writer *kafka.Writer
	var err error

	for attempt := 1; attempt <= k.RetryCount; attempt++ {
		writer = kafka.NewWriter(kafka.WriterConfig{
			Brokers:  k.Brokers,
			Topic:    k.Topic,
			Balancer: &kafka.LeastBytes{},
		})

		err = writer.WriteMessages(context.Background(), kafka.Message{
			Key:   []byte("ping"),
			Value: []byte("ping"),
		})
		if err == nil {
			return writer, nil
		}

		logger.Log.Warn(
			"Failed to create Kafka writer, retrying...",
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
		writer.Close()
		time.Sleep(k.RetryInterval * time.Second)
	}

	return nil, errprocess.Set(fmt.Sprintf("unable to create Kafka writer after %d attempts: %v", k.RetryCount, err))
}
