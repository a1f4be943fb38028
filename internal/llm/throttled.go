package llm

import "context"

// Waiter blocks until a rate-limit slot is available for a resource.
type Waiter interface {
	Wait(ctx context.Context, resource string) error
}

// ThrottledProvider wraps a Provider so every completion waits for a
// rate-limit slot keyed by the provider name.
type ThrottledProvider struct {
	inner  Provider
	waiter Waiter
}

// Throttle wraps a provider with a rate limiter. A nil waiter returns
// the provider unchanged.
func Throttle(p Provider, w Waiter) Provider {
	if w == nil {
		return p
	}
	return &ThrottledProvider{inner: p, waiter: w}
}

func (t *ThrottledProvider) Name() string { return t.inner.Name() }

func (t *ThrottledProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	if err := t.waiter.Wait(ctx, t.inner.Name()); err != nil {
		return nil, err
	}
	return t.inner.Complete(ctx, req)
}

func (t *ThrottledProvider) IsAvailable(ctx context.Context) bool {
	return t.inner.IsAvailable(ctx)
}
