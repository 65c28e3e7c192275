package hub

import (
	"context"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/yeremiapane/restaurant-ordering/utils"
)

// BreakerSink stops calling a sink after consecutive failures and retries it
// once openFor has elapsed.
type BreakerSink struct {
	next Sink
	cb   *gobreaker.CircuitBreaker[struct{}]
}

func NewBreakerSink(next Sink, maxFailures uint32, openFor time.Duration) *BreakerSink {
	settings := gobreaker.Settings{
		Name:        next.Name(),
		MaxRequests: 1,
		Timeout:     openFor,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			utils.InfoLogger.Printf("sink %s breaker: %s -> %s", name, from, to)
		},
	}
	return &BreakerSink{
		next: next,
		cb:   gobreaker.NewCircuitBreaker[struct{}](settings),
	}
}

func (b *BreakerSink) Name() string {
	return b.next.Name()
}

func (b *BreakerSink) Forward(ctx context.Context, topic string, data []byte) error {
	_, err := b.cb.Execute(func() (struct{}, error) {
		return struct{}{}, b.next.Forward(ctx, topic, data)
	})
	return err
}

func (b *BreakerSink) State() gobreaker.State {
	return b.cb.State()
}
