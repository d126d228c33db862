package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
)

// ActivityEvent is published to Kafka whenever something happens to a
// pet. Downstream consumers build activity feeds and analytics off it.
type ActivityEvent struct {
	Type      string `json:"type"`
	PetID     uint   `json:"pet_id"`
	UserID    uint   `json:"user_id"`
	Details   string `json:"details,omitempty"`
	Timestamp string `json:"timestamp"`
}

// Producer publishes activity events, keyed by pet so each pet's
// events stay ordered within a partition.
type Producer struct {
	producer sarama.SyncProducer
	topic    string
}

// NewProducer connects a sync producer to the given brokers.
func NewProducer(brokers []string, topic string) (*Producer, error) {
	config := sarama.NewConfig()
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 5
	config.Producer.Return.Successes = true
	config.Producer.Compression = sarama.CompressionSnappy
	config.Producer.Partitioner = sarama.NewHashPartitioner
	config.Version = sarama.V2_0_0_0
	config.ClientID = "pet-service"

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, err
	}
	return &Producer{producer: producer, topic: topic}, nil
}

// PublishActivity sends one event. A nil Producer is a no-op so the
// service can run without Kafka in development.
func (p *Producer) PublishActivity(ev ActivityEvent) error {
	if p == nil {
		return nil
	}
	if ev.Timestamp == "" {
		ev.Timestamp = time.Now().UTC().Format(time.RFC3339)
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to encode activity event: %w", err)
	}
	_, _, err = p.producer.SendMessage(&sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(fmt.Sprintf("pet-%d", ev.PetID)),
		Value: sarama.ByteEncoder(payload),
	})
	return err
}

// Close flushes and shuts the underlying producer down.
func (p *Producer) Close() error {
	if p == nil {
		return nil
	}
	return p.producer.Close()
}
