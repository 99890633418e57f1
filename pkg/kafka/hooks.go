package kafka

import (
	"context"

	"github.com/segmentio/kafka-go"
)

// TraceHeader carries the correlation id across request and result topics.
const TraceHeader = "trace_id"

// ConsumerHook defines lifecycle hooks around message handling.
// Returning an error from BeforeHandle skips the handler and sends the
// message down the failure path (OnError, DLQ, commit).
type ConsumerHook interface {
	BeforeHandle(ctx context.Context, topic string, km kafka.Message) (context.Context, error)
	AfterHandle(ctx context.Context, topic string, km kafka.Message, err error)
	OnError(ctx context.Context, topic string, km kafka.Message, err error)
}

// NoopHook does nothing.
type NoopHook struct{}

func (NoopHook) BeforeHandle(ctx context.Context, _ string, _ kafka.Message) (context.Context, error) {
	return ctx, nil
}

func (NoopHook) AfterHandle(context.Context, string, kafka.Message, error) {}

func (NoopHook) OnError(context.Context, string, kafka.Message, error) {}

// HookFuncs adapts plain functions to ConsumerHook. Nil functions are no-ops.
type HookFuncs struct {
	Before func(context.Context, string, kafka.Message) (context.Context, error)
	After  func(context.Context, string, kafka.Message, error)
	Err    func(context.Context, string, kafka.Message, error)
}

func (h HookFuncs) BeforeHandle(ctx context.Context, topic string, km kafka.Message) (context.Context, error) {
	if h.Before == nil {
		return ctx, nil
	}
	return h.Before(ctx, topic, km)
}

func (h HookFuncs) AfterHandle(ctx context.Context, topic string, km kafka.Message, err error) {
	if h.After != nil {
		h.After(ctx, topic, km, err)
	}
}

func (h HookFuncs) OnError(ctx context.Context, topic string, km kafka.Message, err error) {
	if h.Err != nil {
		h.Err(ctx, topic, km, err)
	}
}

type ctxKey struct{}

// WithTraceID stores a correlation id in ctx.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	if traceID == "" {
		return ctx
	}
	return context.WithValue(ctx, ctxKey{}, traceID)
}

// TraceIDFrom returns the correlation id stored by WithTraceID.
func TraceIDFrom(ctx context.Context) string {
	s, _ := ctx.Value(ctxKey{}).(string)
	return s
}

// ExtractTraceID reads the trace header of a message.
func ExtractTraceID(msg kafka.Message) string {
	for _, h := range msg.Headers {
		if h.Key == TraceHeader && len(h.Value) > 0 {
			return string(h.Value)
		}
	}
	return ""
}

// TraceHook copies the trace header into the handler context.
func TraceHook() ConsumerHook {
	return HookFuncs{
		Before: func(ctx context.Context, _ string, km kafka.Message) (context.Context, error) {
			return WithTraceID(ctx, ExtractTraceID(km)), nil
		},
	}
}
