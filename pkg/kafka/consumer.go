package kafka

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	applogger "FXRisk/pkg/logger"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/segmentio/kafka-go"
)

// MessageHandler handles messages from a specific topic.
type MessageHandler interface {
	Topic() string
	Handle(context.Context, []byte) error
}

type permanentError struct{ err error }

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks err as not retryable; the message goes straight to the DLQ.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsPermanent reports whether err was marked with Permanent.
func IsPermanent(err error) bool {
	var pe *permanentError
	return errors.As(err, &pe)
}

// Consumer reads registered topics in one consumer group and fans messages
// out to a worker pool. Offsets are committed after the handler succeeds or
// after a failed message has been written to the DLQ.
type Consumer struct {
	cfg      *ConsumerConfig
	l        *applogger.Logger
	readers  map[string]*kafka.Reader
	handlers map[string]MessageHandler
	hooks    []ConsumerHook
	dlq      *kafka.Writer

	msgChan  chan kafka.Message
	ctx      context.Context
	cancel   context.CancelFunc
	readWG   sync.WaitGroup
	workWG   sync.WaitGroup
	stopOnce sync.Once

	partMu    sync.Mutex
	partLocks map[string]*sync.Mutex
}

func NewConsumer(opts ...ConsumerOption) (*Consumer, error) {
	cfg := &ConsumerConfig{
		GroupID:     "fxrisk",
		WorkerCount: 1,
		BufferSize:  16,
		RetryMax:    3,
		BackoffMin:  100 * time.Millisecond,
		BackoffMax:  5 * time.Second,
		MinBytes:    1,
		MaxBytes:    10e6,
	}

	for _, opt := range opts {
		opt(cfg)
	}

	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("brokers are required")
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &Consumer{
		cfg:       cfg,
		l:         cfg.Logger,
		readers:   make(map[string]*kafka.Reader),
		handlers:  make(map[string]MessageHandler),
		msgChan:   make(chan kafka.Message, cfg.BufferSize),
		ctx:       ctx,
		cancel:    cancel,
		partLocks: make(map[string]*sync.Mutex),
	}

	if cfg.DLQTopic != "" {
		c.dlq = &kafka.Writer{Addr: kafka.TCP(cfg.Brokers...), Topic: cfg.DLQTopic, Balancer: &kafka.Hash{}}
	}

	initConsumerMetrics()
	return c, nil
}

// RegisterHandler registers a handler for its topic. Later registrations for
// the same topic are ignored.
func (c *Consumer) RegisterHandler(handler MessageHandler) {
	topic := handler.Topic()
	if _, ok := c.handlers[topic]; ok {
		if c.l != nil {
			c.l.Warn("kafka handler already registered", applogger.String("topic", topic))
		}
		return
	}
	c.handlers[topic] = handler
}

// Use appends lifecycle hooks; they run in registration order.
func (c *Consumer) Use(hooks ...ConsumerHook) {
	for _, h := range hooks {
		if h != nil {
			c.hooks = append(c.hooks, h)
		}
	}
}

// Start launches one reader per registered topic and the worker pool.
func (c *Consumer) Start() error {
	if len(c.handlers) == 0 {
		return fmt.Errorf("no kafka handlers registered")
	}

	for topic := range c.handlers {
		c.readers[topic] = kafka.NewReader(kafka.ReaderConfig{
			Brokers:  c.cfg.Brokers,
			Topic:    topic,
			GroupID:  c.cfg.GroupID,
			MinBytes: c.cfg.MinBytes,
			MaxBytes: c.cfg.MaxBytes,
		})
	}

	for i := 0; i < c.cfg.WorkerCount; i++ {
		c.workWG.Add(1)
		go c.worker()
	}

	for topic, reader := range c.readers {
		c.readWG.Add(1)
		go c.fetch(topic, reader)
	}

	if c.l != nil {
		c.l.Info("kafka consumer started",
			applogger.String("group", c.cfg.GroupID),
			applogger.Int("topics", len(c.readers)),
			applogger.Int("workers", c.cfg.WorkerCount),
		)
	}
	return nil
}

// Stop cancels fetching, drains in-flight messages and closes readers.
func (c *Consumer) Stop(ctx context.Context) error {
	var stopErr error

	c.stopOnce.Do(func() {
		c.cancel()
		c.readWG.Wait()
		close(c.msgChan)

		done := make(chan struct{})
		go func() {
			c.workWG.Wait()
			close(done)
		}()
		select {
		case <-ctx.Done():
			stopErr = fmt.Errorf("timeout waiting for consumer workers: %w", ctx.Err())
		case <-done:
		}

		for topic, reader := range c.readers {
			if err := reader.Close(); err != nil && c.l != nil {
				c.l.Error("close kafka reader", applogger.String("topic", topic), applogger.Error(err))
			}
		}
		if c.dlq != nil {
			if err := c.dlq.Close(); err != nil && c.l != nil {
				c.l.Error("close dlq writer", applogger.Error(err))
			}
		}
		if c.l != nil {
			c.l.Info("kafka consumer stopped")
		}
	})

	return stopErr
}

func (c *Consumer) fetch(topic string, reader *kafka.Reader) {
	defer c.readWG.Done()

	for {
		msg, err := reader.FetchMessage(c.ctx)
		if err != nil {
			if c.ctx.Err() != nil {
				return
			}
			if c.l != nil {
				c.l.Error("kafka fetch failed", applogger.String("topic", topic), applogger.Error(err))
			}
			select {
			case <-time.After(c.cfg.BackoffMin):
			case <-c.ctx.Done():
				return
			}
			continue
		}

		select {
		case c.msgChan <- msg:
			consumerQueueDepth.WithLabelValues(topic).Set(float64(len(c.msgChan)))
		case <-c.ctx.Done():
			return
		}
	}
}

func (c *Consumer) worker() {
	defer c.workWG.Done()
	for msg := range c.msgChan {
		c.process(msg)
	}
}

func (c *Consumer) process(msg kafka.Message) {
	handler, ok := c.handlers[msg.Topic]
	if !ok {
		return
	}
	start := time.Now()

	// one in-flight message per partition keeps per-key ordering
	pl := c.partitionLock(msg.Topic, msg.Partition)
	pl.Lock()
	defer pl.Unlock()

	err := c.handleWithRetry(handler, msg)
	result := "ok"
	if err != nil {
		result = "error"
		if c.l != nil {
			c.l.Error("kafka message failed",
				applogger.String("topic", msg.Topic),
				applogger.Int("partition", msg.Partition),
				applogger.Int64("offset", msg.Offset),
				applogger.Error(err),
			)
		}
		if c.dlq == nil {
			consumerHandled.WithLabelValues(msg.Topic, result).Inc()
			return
		}
		if dlqErr := c.toDLQ(msg, err); dlqErr != nil {
			if c.l != nil {
				c.l.Error("dlq write failed", applogger.String("topic", c.cfg.DLQTopic), applogger.Error(dlqErr))
			}
			consumerHandled.WithLabelValues(msg.Topic, result).Inc()
			return
		}
		result = "dlq"
	}

	if reader := c.readers[msg.Topic]; reader != nil {
		_ = c.commitWithRetry(reader, msg, 3)
	}
	consumerHandled.WithLabelValues(msg.Topic, result).Inc()
	consumerHandleLatency.WithLabelValues(msg.Topic).Observe(time.Since(start).Seconds())
}

func (c *Consumer) handleWithRetry(handler MessageHandler, msg kafka.Message) (err error) {
	for attempt := 1; ; attempt++ {
		err = c.handleOnce(handler, msg)
		if err == nil || IsPermanent(err) || attempt > c.cfg.RetryMax {
			return err
		}
		select {
		case <-time.After(backoffWithJitter(c.cfg.BackoffMin, c.cfg.BackoffMax, attempt)):
		case <-c.ctx.Done():
			return err
		}
	}
}

func (c *Consumer) handleOnce(handler MessageHandler, msg kafka.Message) (err error) {
	ctx := context.Background()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in handler for %s: %v", msg.Topic, r)
		}
		for _, h := range c.hooks {
			if err != nil {
				h.OnError(ctx, msg.Topic, msg, err)
			}
			h.AfterHandle(ctx, msg.Topic, msg, err)
		}
	}()

	for _, h := range c.hooks {
		if ctx, err = h.BeforeHandle(ctx, msg.Topic, msg); err != nil {
			return err
		}
	}
	return handler.Handle(ctx, msg.Value)
}

func (c *Consumer) toDLQ(msg kafka.Message, cause error) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	headers := append([]kafka.Header{
		{Key: "source_topic", Value: []byte(msg.Topic)},
		{Key: "error", Value: []byte(cause.Error())},
	}, msg.Headers...)
	return c.dlq.WriteMessages(ctx, kafka.Message{
		Key:     msg.Key,
		Value:   msg.Value,
		Time:    time.Now(),
		Headers: headers,
	})
}

func (c *Consumer) commitWithRetry(reader *kafka.Reader, km kafka.Message, max int) error {
	var err error
	for attempt := 1; attempt <= max; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		err = reader.CommitMessages(ctx, km)
		cancel()
		if err == nil || errors.Is(err, kafka.ErrGroupClosed) {
			return err
		}
		time.Sleep(backoffWithJitter(50*time.Millisecond, 500*time.Millisecond, attempt))
	}
	if c.l != nil {
		c.l.Error("kafka commit failed", applogger.String("topic", km.Topic), applogger.Int("attempts", max), applogger.Error(err))
	}
	return err
}

func (c *Consumer) partitionLock(topic string, partition int) *sync.Mutex {
	key := fmt.Sprintf("%s/%d", topic, partition)
	c.partMu.Lock()
	defer c.partMu.Unlock()
	l, ok := c.partLocks[key]
	if !ok {
		l = &sync.Mutex{}
		c.partLocks[key] = l
	}
	return l
}

// backoffWithJitter doubles min per attempt up to max and subtracts up to 50% jitter.
func backoffWithJitter(min, max time.Duration, attempt int) time.Duration {
	if min <= 0 {
		min = 50 * time.Millisecond
	}
	if max < min {
		max = min
	}
	exp := max
	if attempt-1 < 32 {
		if d := min << uint(attempt-1); d > 0 && d < max {
			exp = d
		}
	}
	if half := int64(exp) / 2; half > 0 {
		exp -= time.Duration(rand.Int63n(half))
	}
	return exp
}

var (
	consumerQueueDepth    *prometheus.GaugeVec
	consumerHandled       *prometheus.CounterVec
	consumerHandleLatency *prometheus.HistogramVec
	consumerMetricsOnce   sync.Once
)

func initConsumerMetrics() {
	consumerMetricsOnce.Do(func() {
		consumerQueueDepth = promauto.NewGaugeVec(
			prometheus.GaugeOpts{Name: "fxrisk_kafka_consumer_queue_depth", Help: "Messages waiting for a worker"},
			[]string{"topic"},
		)
		consumerHandled = promauto.NewCounterVec(
			prometheus.CounterOpts{Name: "fxrisk_kafka_consumer_messages_total", Help: "Messages handled by result"},
			[]string{"topic", "result"},
		)
		consumerHandleLatency = promauto.NewHistogramVec(
			prometheus.HistogramOpts{Name: "fxrisk_kafka_consumer_handle_seconds", Help: "Handling time per message"},
			[]string{"topic"},
		)
	})
}
