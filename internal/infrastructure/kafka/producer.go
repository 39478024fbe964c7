package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"

	"github.com/IBM/sarama"
	"github.com/rs/zerolog"

	"github.com/omniores3/pythonGroupTools/internal/domain"
)

// Producer streams freshly persisted messages to Kafka using an
// asynchronous producer. It implements domain.EventPublisher.
type Producer struct {
	producer  sarama.AsyncProducer
	topic     string
	logger    zerolog.Logger
	metrics   recorder
	wg        sync.WaitGroup
	closeOnce sync.Once
	closeErr  error
}

// recorder is the slice of the metrics surface the producer needs
type recorder interface {
	RecordKafkaMessage()
	RecordKafkaError(errorType string)
}

// ProducerConfig holds configuration for the Kafka producer
type ProducerConfig struct {
	Brokers []string
	Topic   string
	Logger  zerolog.Logger
	Metrics recorder
}

// messageEvent is the wire shape published for each stored message
type messageEvent struct {
	GroupTelegramID   int64  `json:"group_telegram_id"`
	GroupTitle        string `json:"group_title"`
	GroupUsername     string `json:"group_username"`
	TelegramMessageID int64  `json:"telegram_message_id"`
	SenderID          int64  `json:"sender_id"`
	SenderName        string `json:"sender_name"`
	Content           string `json:"content"`
	MediaType         string `json:"media_type"`
	MessageDate       int64  `json:"message_date"`
}

// NewProducer creates a new Kafka producer. Idempotent mode gives
// at-least-once delivery with broker-side deduplication; messages are
// partitioned by group ID so per-group ordering holds.
func NewProducer(cfg ProducerConfig) (*Producer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("no kafka brokers specified")
	}
	if cfg.Topic == "" {
		return nil, fmt.Errorf("kafka topic is required")
	}

	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	config.Producer.Return.Errors = true
	config.Producer.Compression = sarama.CompressionSnappy
	config.Producer.Idempotent = true
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Net.MaxOpenRequests = 1
	config.Producer.Partitioner = sarama.NewHashPartitioner
	config.ClientID = "collector-service-producer"
	config.Version = sarama.V2_6_0_0

	producer, err := sarama.NewAsyncProducer(cfg.Brokers, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}

	p := &Producer{
		producer: producer,
		topic:    cfg.Topic,
		logger:   cfg.Logger.With().Str("component", "kafka_producer").Logger(),
		metrics:  cfg.Metrics,
	}

	p.wg.Add(2)
	go p.handleSuccesses()
	go p.handleErrors()

	p.logger.Info().
		Strs("brokers", cfg.Brokers).
		Str("topic", cfg.Topic).
		Msg("Kafka producer initialized")

	return p, nil
}

// PublishMessage queues one stored message for delivery to Kafka.
// Send failures are handled asynchronously and only logged.
func (p *Producer) PublishMessage(ctx context.Context, group *domain.Group, message *domain.Message) error {
	event := messageEvent{
		GroupTelegramID:   group.TelegramID,
		GroupTitle:        group.Title,
		GroupUsername:     group.Username,
		TelegramMessageID: message.TelegramMessageID,
		SenderID:          message.SenderID,
		SenderName:        message.SenderName,
		Content:           message.Content,
		MediaType:         string(message.MediaType),
		MessageDate:       message.MessageDate.Unix(),
	}

	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal message event: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(strconv.FormatInt(group.TelegramID, 10)),
		Value: sarama.ByteEncoder(value),
	}

	select {
	case p.producer.Input() <- msg:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("context cancelled while queueing message: %w", ctx.Err())
	}
}

// handleSuccesses drains the async success channel
func (p *Producer) handleSuccesses() {
	defer p.wg.Done()
	for range p.producer.Successes() {
		if p.metrics != nil {
			p.metrics.RecordKafkaMessage()
		}
	}
}

// handleErrors drains the async error channel
func (p *Producer) handleErrors() {
	defer p.wg.Done()
	for err := range p.producer.Errors() {
		p.logger.Error().Err(err.Err).Msg("failed to deliver message to Kafka")
		if p.metrics != nil {
			p.metrics.RecordKafkaError("send_failed")
		}
	}
}

// Close flushes pending messages and shuts the producer down
func (p *Producer) Close() error {
	p.closeOnce.Do(func() {
		p.closeErr = p.producer.Close()
		p.wg.Wait()
	})
	return p.closeErr
}

// Ensure Producer implements domain.EventPublisher
var _ domain.EventPublisher = (*Producer)(nil)
