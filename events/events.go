package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/IBM/sarama"
	"github.com/juju/errors"
	"github.com/sirupsen/logrus"

	"github.com/ray-remotestate/restro/models"
)

// StatusChanged is published after every confirmed status change.
type StatusChanged struct {
	ID          int64              `json:"id"`
	OrderID     string             `json:"orderId"`
	Status      models.OrderStatus `json:"status"`
	Reason      *string            `json:"reason,omitempty"`
	CompletedAt *time.Time         `json:"completedAt,omitempty"`
	ChangedAt   time.Time          `json:"changedAt"`
}

type Publisher interface {
	PublishStatusChange(ctx context.Context, ev StatusChanged) error
	Close() error
}

// KafkaPublisher writes events to a topic keyed by the external order id,
// so every change of one order lands on the same partition.
type KafkaPublisher struct {
	producer sarama.SyncProducer
	topic    string
}

func NewKafkaPublisher(brokers []string, topic string) (*KafkaPublisher, error) {
	config := sarama.NewConfig()
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 5
	config.Producer.Return.Successes = true
	config.Producer.Timeout = 5 * time.Second

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, errors.Annotate(err, "failed to start kafka producer")
	}
	logrus.WithField("brokers", brokers).Info("kafka producer connected")
	return NewKafkaPublisherWithProducer(producer, topic), nil
}

func NewKafkaPublisherWithProducer(producer sarama.SyncProducer, topic string) *KafkaPublisher {
	return &KafkaPublisher{producer: producer, topic: topic}
}

func (p *KafkaPublisher) PublishStatusChange(ctx context.Context, ev StatusChanged) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return errors.Trace(err)
	}
	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(ev.OrderID),
		Value: sarama.ByteEncoder(data),
	}
	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		return errors.Annotatef(err, "publishing status of order %s", ev.OrderID)
	}
	logrus.WithFields(logrus.Fields{
		"order_id":  ev.OrderID,
		"status":    ev.Status,
		"partition": partition,
		"offset":    offset,
	}).Debug("order status event published")
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.producer.Close()
}

// LogPublisher only logs; it is used when no brokers are configured.
type LogPublisher struct{}

func (LogPublisher) PublishStatusChange(ctx context.Context, ev StatusChanged) error {
	logrus.WithFields(logrus.Fields{
		"order_id": ev.OrderID,
		"status":   ev.Status,
	}).Info("order status changed")
	return nil
}

func (LogPublisher) Close() error { return nil }
