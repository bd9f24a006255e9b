package llm

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// rateLimiter is a token bucket refilled lazily on acquisition, sized in
// requests per minute.
type rateLimiter struct {
	lastRefill time.Time
	tokens     float64
	capacity   float64
	perSecond  float64
	mu         sync.Mutex
}

func newRateLimiter(requestsPerMinute int) *rateLimiter {
	if requestsPerMinute <= 0 {
		requestsPerMinute = 60
	}
	return &rateLimiter{
		tokens:     float64(requestsPerMinute),
		capacity:   float64(requestsPerMinute),
		perSecond:  float64(requestsPerMinute) / 60.0,
		lastRefill: time.Now(),
	}
}

// wait blocks until a token is available or the context is canceled.
func (rl *rateLimiter) wait(ctx context.Context) error {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		if rl.tryAcquire() {
			return nil
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("rate limiter canceled: %w", ctx.Err())
		case <-ticker.C:
		}
	}
}

func (rl *rateLimiter) tryAcquire() bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	rl.tokens += now.Sub(rl.lastRefill).Seconds() * rl.perSecond
	if rl.tokens > rl.capacity {
		rl.tokens = rl.capacity
	}
	rl.lastRefill = now

	if rl.tokens >= 1 {
		rl.tokens--
		return true
	}
	return false
}

// rateLimitedClient throttles an inner client to a request budget.
type rateLimitedClient struct {
	inner   Client
	limiter *rateLimiter
}

func newRateLimitedClient(inner Client, requestsPerMinute int) Client {
	return &rateLimitedClient{inner: inner, limiter: newRateLimiter(requestsPerMinute)}
}

func (c *rateLimitedClient) Classify(ctx context.Context, prompt string) (ClassificationResponse, error) {
	if err := c.limiter.wait(ctx); err != nil {
		return ClassificationResponse{}, err
	}
	return c.inner.Classify(ctx, prompt)
}

func (c *rateLimitedClient) ClassifyBatch(ctx context.Context, prompt string) (BatchResponse, error) {
	if err := c.limiter.wait(ctx); err != nil {
		return BatchResponse{}, err
	}
	return c.inner.ClassifyBatch(ctx, prompt)
}
