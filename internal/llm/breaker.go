package llm

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/ledgerlens/ledgerlens/internal/common"
)

// breakerClient shields the remote service from hammering during outages.
// Validation errors count as model misbehavior, not service failure, and do
// not trip the breaker.
type breakerClient struct {
	inner   Client
	breaker *gobreaker.CircuitBreaker[any]
}

func newBreakerClient(inner Client) Client {
	settings := gobreaker.Settings{
		Name:        "remote-classifier",
		MaxRequests: 2,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 5 {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= 0.6
		},
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			return !errors.Is(err, common.ErrRemoteService)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			slog.Warn("circuit breaker state change",
				"name", name, "from", from.String(), "to", to.String())
		},
	}

	return &breakerClient{
		inner:   inner,
		breaker: gobreaker.NewCircuitBreaker[any](settings),
	}
}

func (c *breakerClient) Classify(ctx context.Context, prompt string) (ClassificationResponse, error) {
	result, err := c.breaker.Execute(func() (any, error) {
		return c.inner.Classify(ctx, prompt)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return ClassificationResponse{}, common.NewRemoteServiceError("classify", 0, err)
		}
		return ClassificationResponse{}, err
	}
	return result.(ClassificationResponse), nil
}

func (c *breakerClient) ClassifyBatch(ctx context.Context, prompt string) (BatchResponse, error) {
	result, err := c.breaker.Execute(func() (any, error) {
		return c.inner.ClassifyBatch(ctx, prompt)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return BatchResponse{}, common.NewRemoteServiceError("classify-batch", 0, err)
		}
		return BatchResponse{}, err
	}
	return result.(BatchResponse), nil
}
