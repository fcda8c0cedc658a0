package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"solana-volume-bot/internal/domain"
)

// DefaultKafkaWriteTimeout bounds one publish.
const DefaultKafkaWriteTimeout = 5 * time.Second

// MessageWriter is the subset of *kafka.Writer used by KafkaSink.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// NewKafkaWriter creates a synchronous writer for topic.
func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchSize:    100,
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
		Compression:  kafka.Zstd,
	}
}

// KafkaSink publishes events as JSON keyed by token mint.
type KafkaSink struct {
	writer  MessageWriter
	timeout time.Duration
}

// NewKafkaSink creates a sink over writer. timeout <= 0 uses DefaultKafkaWriteTimeout.
func NewKafkaSink(writer MessageWriter, timeout time.Duration) *KafkaSink {
	if timeout <= 0 {
		timeout = DefaultKafkaWriteTimeout
	}
	return &KafkaSink{writer: writer, timeout: timeout}
}

type kafkaTradeEvent struct {
	ID             string  `json:"id"`
	Token          string  `json:"token"`
	Wallet         string  `json:"wallet"`
	Action         string  `json:"action"`
	Venue          string  `json:"venue"`
	Signature      string  `json:"signature,omitempty"`
	AmountLamports uint64  `json:"amount_lamports,omitempty"`
	TokenAmount    uint64  `json:"token_amount,omitempty"`
	PriceNative    float64 `json:"price_native,omitempty"`
	FeeLamports    uint64  `json:"fee_lamports,omitempty"`
	DryRun         bool    `json:"dry_run"`
	PnLNative      float64 `json:"pnl_native,omitempty"`
	Error          string  `json:"error,omitempty"`
	TimestampMs    int64   `json:"timestamp_ms"`
}

// Publish implements Sink.
func (s *KafkaSink) Publish(ctx context.Context, e domain.TradeEvent) error {
	value, err := json.Marshal(kafkaTradeEvent{
		ID:             e.ID,
		Token:          e.Token,
		Wallet:         e.Wallet,
		Action:         string(e.Action),
		Venue:          e.Venue,
		Signature:      e.Signature,
		AmountLamports: e.AmountLamports,
		TokenAmount:    e.TokenAmount,
		PriceNative:    e.PriceNative,
		FeeLamports:    e.FeeLamports,
		DryRun:         e.DryRun,
		PnLNative:      e.PnLNative,
		Error:          e.Err,
		TimestampMs:    e.Timestamp.UnixMilli(),
	})
	if err != nil {
		return fmt.Errorf("marshal trade event: %w", err)
	}

	writeCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := s.writer.WriteMessages(writeCtx, kafka.Message{
		Key:   []byte(e.Token),
		Value: value,
		Time:  e.Timestamp,
	}); err != nil {
		return fmt.Errorf("kafka publish %s: %w", e.ID, err)
	}
	return nil
}

// Close closes the underlying writer.
func (s *KafkaSink) Close() error {
	return s.writer.Close()
}
