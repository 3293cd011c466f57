package notifier

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/nlevin/shortly/internal/models"
)

const (
	queueSize    = 1000
	sendAttempts = 3
	sendTimeout  = 5 * time.Second
	retryBackoff = 100 * time.Millisecond
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer publishes URL access events. Notify never blocks the caller:
// events pass through a bounded queue to a background worker, and are
// dropped with a log entry when the queue is full or the broker keeps
// rejecting writes.
type Producer struct {
	writer messageWriter
	logger *zap.Logger

	events       chan models.AccessEvent
	wg           sync.WaitGroup
	shutdownOnce sync.Once
}

func NewProducer(brokers []string, topic string, logger *zap.Logger) *Producer {
	writer := &kafka.Writer{
		Addr:     kafka.TCP(brokers...),
		Topic:    topic,
		Balancer: &kafka.LeastBytes{},
	}

	return newProducer(writer, logger)
}

func newProducer(writer messageWriter, logger *zap.Logger) *Producer {
	p := &Producer{
		writer: writer,
		logger: logger,
		events: make(chan models.AccessEvent, queueSize),
	}

	p.wg.Add(1)
	go p.dispatchWorker()

	return p
}

// Notify enqueues an access event for the given URL. Fire-and-forget: the
// resolution response never waits on queue acknowledgment.
func (p *Producer) Notify(url *models.URL) {
	event := models.AccessEvent{
		URLID:       url.ID,
		Hash:        url.Hash,
		OriginalURL: url.OriginalURL,
		UserID:      url.UserID,
		AccessedAt:  time.Now(),
	}

	select {
	case p.events <- event:
	default:
		p.logger.Warn("Access event queue full, dropping event",
			zap.String("urlID", event.URLID))
	}
}

func (p *Producer) dispatchWorker() {
	defer p.wg.Done()

	for event := range p.events {
		p.send(event)
	}
}

func (p *Producer) send(event models.AccessEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		p.logger.Error("Failed to marshal access event",
			zap.String("urlID", event.URLID),
			zap.Error(err))
		return
	}

	msg := kafka.Message{
		Key:   []byte(event.URLID),
		Value: data,
	}

	for attempt := 1; attempt <= sendAttempts; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
		err = p.writer.WriteMessages(ctx, msg)
		cancel()

		if err == nil {
			return
		}

		p.logger.Warn("Failed to send access event",
			zap.String("urlID", event.URLID),
			zap.Int("attempt", attempt),
			zap.Error(err))

		if attempt < sendAttempts {
			time.Sleep(retryBackoff)
		}
	}

	p.logger.Error("Dropping access event after retries",
		zap.String("urlID", event.URLID),
		zap.Error(err))
}

// Close drains queued events and releases the underlying writer.
func (p *Producer) Close() error {
	var err error
	p.shutdownOnce.Do(func() {
		close(p.events)
		p.wg.Wait()
		err = p.writer.Close()
	})
	return err
}
