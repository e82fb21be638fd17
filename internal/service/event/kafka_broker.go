package event

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strconv"
	"time"

	"ripple_chat_server/internal/config"
	"ripple_chat_server/internal/service/presence"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// KafkaBroker relays envelopes through a Kafka topic for multi-node
// deployments. Every node consumes the full topic (per-node group id) and
// delivers each envelope to whatever target sessions it holds locally.
type KafkaBroker struct {
	registry *presence.Registry
	producer *kafka.Writer
	consumer *kafka.Reader

	cancel context.CancelFunc
}

// NewKafkaBroker builds the producer and consumer from config.
// nodeID keys the consumer group so each node sees every event.
func NewKafkaBroker(registry *presence.Registry, nodeID string) *KafkaBroker {
	kafkaConfig := config.GetConfig().KafkaConfig

	producer := &kafka.Writer{
		Addr:                   kafka.TCP(kafkaConfig.HostPort),
		Topic:                  kafkaConfig.EventTopic,
		Balancer:               &kafka.Hash{},
		WriteTimeout:           kafkaConfig.Timeout * time.Second,
		RequiredAcks:           kafka.RequireNone,
		AllowAutoTopicCreation: false,
	}
	consumer := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        []string{kafkaConfig.HostPort},
		Topic:          kafkaConfig.EventTopic,
		CommitInterval: kafkaConfig.Timeout * time.Second,
		GroupID:        "event_relay_" + nodeID,
		StartOffset:    kafka.LastOffset,
	})

	return &KafkaBroker{
		registry: registry,
		producer: producer,
		consumer: consumer,
	}
}

func (b *KafkaBroker) Publish(ctx context.Context, env Envelope) error {
	value, err := json.Marshal(env)
	if err != nil {
		return err
	}
	key := []byte(strconv.Itoa(config.GetConfig().KafkaConfig.Partition))
	return b.producer.WriteMessages(ctx, kafka.Message{
		Key:   key,
		Value: value,
	})
}

// Start consumes the event topic and delivers to local sessions until
// Close is called.
func (b *KafkaBroker) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	b.cancel = cancel

	for {
		msg, err := b.consumer.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, context.Canceled) {
				return
			}
			zap.L().Error("kafka read event failed", zap.Error(err))
			continue
		}
		var env Envelope
		if err := json.Unmarshal(msg.Value, &env); err != nil {
			zap.L().Error("decode event envelope failed", zap.Error(err))
			continue
		}
		deliverLocal(b.registry, env)
	}
}

func (b *KafkaBroker) Close() {
	if b.cancel != nil {
		b.cancel()
	}
	if err := b.producer.Close(); err != nil {
		zap.L().Error(err.Error())
	}
	if err := b.consumer.Close(); err != nil {
		zap.L().Error(err.Error())
	}
}
