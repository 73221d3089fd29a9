package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/IBM/sarama"
	"go.uber.org/zap"

	"transferScan/internal/model"
)

// KafkaSink publishes transfers to a Kafka topic, keyed by token address so
// a token's transfers stay ordered within one partition.
type KafkaSink struct {
	producer sarama.SyncProducer
	topic    string
	logger   *zap.Logger
}

func NewKafkaSink(brokers []string, topic string, logger *zap.Logger) (*KafkaSink, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("kafka brokers are required")
	}
	if topic == "" {
		return nil, fmt.Errorf("kafka topic is required")
	}
	cfg := sarama.NewConfig()
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Retry.Max = 5
	cfg.Producer.Return.Successes = true
	cfg.Producer.Timeout = 5 * time.Second
	cfg.Producer.Partitioner = sarama.NewHashPartitioner
	cfg.Version = sarama.V2_8_0_0

	producer, err := sarama.NewSyncProducer(brokers, cfg)
	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}
	return newKafkaSink(producer, topic, logger), nil
}

func newKafkaSink(producer sarama.SyncProducer, topic string, logger *zap.Logger) *KafkaSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &KafkaSink{producer: producer, topic: topic, logger: logger}
}

// PutTransfers sends the batch in one SendMessages call.
func (k *KafkaSink) PutTransfers(_ context.Context, transfers []model.Transfer) error {
	if len(transfers) == 0 {
		return nil
	}
	msgs := make([]*sarama.ProducerMessage, 0, len(transfers))
	for _, transfer := range transfers {
		payload, err := json.Marshal(transfer)
		if err != nil {
			return fmt.Errorf("marshal transfer: %w", err)
		}
		msgs = append(msgs, &sarama.ProducerMessage{
			Topic: k.topic,
			Key:   sarama.StringEncoder(transfer.Token),
			Value: sarama.ByteEncoder(payload),
			Headers: []sarama.RecordHeader{
				{Key: []byte("block_number"), Value: []byte(strconv.FormatUint(transfer.BlockNumber, 10))},
			},
		})
	}
	if err := k.producer.SendMessages(msgs); err != nil {
		return fmt.Errorf("send transfers to kafka: %w", err)
	}
	k.logger.Debug("transfers published", zap.String("topic", k.topic), zap.Int("count", len(msgs)))
	return nil
}

func (k *KafkaSink) Close() error {
	return k.producer.Close()
}
