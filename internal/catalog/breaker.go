package catalog

import (
	"context"
	"errors"
	"log/slog"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/mmcdole/reel/internal/domain"
)

var _ domain.Catalog = (*BreakerClient)(nil)

// BreakerSettings tunes the circuit breaker around the catalog client
type BreakerSettings struct {
	MaxRequests  uint32        // trial requests allowed while half-open
	Interval     time.Duration // closed-state count reset period
	Timeout      time.Duration // open-state duration before half-open
	MinRequests  uint32
	FailureRatio float64
}

// DefaultBreakerSettings returns the settings used by the reel binaries
func DefaultBreakerSettings() BreakerSettings {
	return BreakerSettings{
		MaxRequests:  3,
		Interval:     time.Minute,
		Timeout:      30 * time.Second,
		MinRequests:  5,
		FailureRatio: 0.6,
	}
}

// BreakerClient wraps a domain.Catalog with a circuit breaker.
// Only transport failures and 5xx responses count against the circuit.
type BreakerClient struct {
	next   domain.Catalog
	cb     *gobreaker.CircuitBreaker[any]
	logger *slog.Logger
}

// NewBreakerClient wraps next with a circuit breaker
func NewBreakerClient(next domain.Catalog, settings BreakerSettings, logger *slog.Logger) *BreakerClient {
	if logger == nil {
		logger = slog.Default()
	}

	cb := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        "catalog-api",
		MaxRequests: settings.MaxRequests,
		Interval:    settings.Interval,
		Timeout:     settings.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < settings.MinRequests {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			if ratio >= settings.FailureRatio {
				logger.Warn("opening catalog circuit", "failures", counts.TotalFailures, "failure_rate", ratio)
				return true
			}
			return false
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Info("circuit breaker state transition", "name", name, "from", from.String(), "to", to.String())
		},
		IsSuccessful: isBreakerSuccess,
	})

	return &BreakerClient{next: next, cb: cb, logger: logger}
}

// isBreakerSuccess treats client errors (4xx, cancellation) as healthy responses
func isBreakerSuccess(err error) bool {
	if err == nil {
		return true
	}
	if errors.Is(err, domain.ErrServerOffline) {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status < 500
	}
	return true
}

// State returns the current breaker state
func (b *BreakerClient) State() gobreaker.State {
	return b.cb.State()
}

func (b *BreakerClient) execute(fn func() (any, error)) (any, error) {
	result, err := b.cb.Execute(fn)
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		b.logger.Warn("catalog request rejected by circuit breaker", "error", err)
		return nil, errors.Join(domain.ErrServerOffline, err)
	}
	return result, err
}

// ListCategory lists a category page with circuit breaker protection
func (b *BreakerClient) ListCategory(ctx context.Context, category domain.Category, page, pageSize int) (domain.Page, error) {
	result, err := b.execute(func() (any, error) {
		return b.next.ListCategory(ctx, category, page, pageSize)
	})
	if err != nil {
		return domain.Page{}, err
	}
	p, ok := result.(domain.Page)
	if !ok {
		return domain.Page{}, errors.New("circuit breaker: unexpected result type for ListCategory")
	}
	return p, nil
}

// Search runs a scoped search with circuit breaker protection
func (b *BreakerClient) Search(ctx context.Context, query string, scope domain.Category, page, pageSize int) (domain.Page, error) {
	result, err := b.execute(func() (any, error) {
		return b.next.Search(ctx, query, scope, page, pageSize)
	})
	if err != nil {
		return domain.Page{}, err
	}
	p, ok := result.(domain.Page)
	if !ok {
		return domain.Page{}, errors.New("circuit breaker: unexpected result type for Search")
	}
	return p, nil
}

// Mutate applies a preference write with circuit breaker protection
func (b *BreakerClient) Mutate(ctx context.Context, action domain.Action, pref domain.Preference) error {
	_, err := b.execute(func() (any, error) {
		return nil, b.next.Mutate(ctx, action, pref)
	})
	return err
}
