package redis

import (
	"context"
	"time"

	"estimator/internal/domain/forecast"
	"estimator/pkg/errors"
)

// ForecastMemo shares live forecast results between replicas
type ForecastMemo struct {
	client *Client
	ttl    time.Duration
}

// NewForecastMemo stores results for ttl
func NewForecastMemo(client *Client, ttl time.Duration) *ForecastMemo {
	return &ForecastMemo{client: client, ttl: ttl}
}

// Get returns a memoized result. Absent keys are (nil, false, nil).
func (m *ForecastMemo) Get(ctx context.Context, key string) (*forecast.Result, bool, error) {
	var res forecast.Result
	if err := m.client.Get(ctx, key, &res); err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return &res, true, nil
}

// Set memoizes a live result
func (m *ForecastMemo) Set(ctx context.Context, key string, res *forecast.Result) error {
	return m.client.Set(ctx, key, res, m.ttl)
}
