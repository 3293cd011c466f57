package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/nlevin/shortly/internal/models"
)

// AccessStore persists a single access-log row for a resolved URL.
type AccessStore interface {
	CreateURLAccess(ctx context.Context, urlID string) error
}

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Consumer pulls access events from the queue and appends url_access rows.
// A malformed message or a failed store write is logged and left
// uncommitted; the pull loop keeps going.
type Consumer struct {
	reader messageReader
	store  AccessStore
	logger *zap.Logger
}

func NewConsumer(brokers []string, topic, groupID string, store AccessStore, logger *zap.Logger) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers: brokers,
		Topic:   topic,
		GroupID: groupID,
	})

	return &Consumer{
		reader: reader,
		store:  store,
		logger: logger,
	}
}

// Run consumes until ctx is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return fmt.Errorf("fetch message: %w", err)
		}

		if err := c.processMessage(ctx, msg.Value); err != nil {
			c.logger.Error("Failed to process access event",
				zap.Int64("offset", msg.Offset),
				zap.Error(err))
			continue
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			c.logger.Error("Failed to commit message",
				zap.Int64("offset", msg.Offset),
				zap.Error(err))
		}
	}
}

func (c *Consumer) processMessage(ctx context.Context, data []byte) error {
	var event models.AccessEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return fmt.Errorf("unmarshal access event: %w", err)
	}

	if event.URLID == "" {
		return errors.New("access event missing url id")
	}

	if err := c.store.CreateURLAccess(ctx, event.URLID); err != nil {
		return fmt.Errorf("create access record: %w", err)
	}

	return nil
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}
