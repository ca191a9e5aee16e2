package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/IBM/sarama"

	"github.com/nok-base/consul-sync/internal/domain/entity"
)

// KafkaWriter publishes registry mutations, keyed by record id.
type KafkaWriter struct {
	producer sarama.SyncProducer
	topic    string
}

func NewKafkaWriter(producer sarama.SyncProducer, topic string) KafkaWriter {
	return KafkaWriter{
		producer: producer,
		topic:    topic,
	}
}

func (w KafkaWriter) WriteMutation(_ context.Context, mutation entity.Mutation) error {
	b, err := json.Marshal(mutation)
	if err != nil {
		return fmt.Errorf("failed to marshal mutation: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic:     w.topic,
		Key:       sarama.StringEncoder(mutation.ID),
		Value:     sarama.ByteEncoder(b),
		Timestamp: mutation.Timestamp,
	}

	_, _, err = w.producer.SendMessage(msg)
	if err != nil {
		return fmt.Errorf("failed to publish mutation of %s: %w", mutation.ID, err)
	}

	return nil
}
