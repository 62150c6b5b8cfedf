package collector

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/songzhibin97/masquerade/internal/models"
)

// ErrNotSupported is returned by sources that do not provide a data kind.
var ErrNotSupported = errors.New("not supported by source")

// MultiSourceCollector implements DataCollector by trying sources in order
type MultiSourceCollector struct {
	sources []DataSource
	logger  Logger
}

type Logger interface {
	Error(msg string, fields ...interface{})
	Info(msg string, fields ...interface{})
}

type DataSource interface {
	Name() string
	CollectPoolStats(ctx context.Context) (*models.PoolStats, error)
	CollectETHPrice(ctx context.Context) (*models.PriceTick, error)
}

func NewMultiSourceCollector(sources []DataSource, logger Logger) *MultiSourceCollector {
	return &MultiSourceCollector{
		sources: sources,
		logger:  logger,
	}
}

// CollectPoolStats implements DataCollector interface
func (c *MultiSourceCollector) CollectPoolStats(ctx context.Context) (*models.PoolStats, error) {
	for _, source := range c.sources {
		result, err := source.CollectPoolStats(ctx)
		if err == nil && result != nil {
			c.logger.Info("collected pool stats", "source", source.Name())
			return result, nil
		}
		if !errors.Is(err, ErrNotSupported) {
			c.logger.Error("failed to collect pool stats", "source", source.Name(), "error", err)
		}
	}

	return nil, fmt.Errorf("failed to collect pool stats from all sources")
}

// CollectETHPrice implements DataCollector interface
func (c *MultiSourceCollector) CollectETHPrice(ctx context.Context) (*models.PriceTick, error) {
	for _, source := range c.sources {
		result, err := source.CollectETHPrice(ctx)
		if err == nil && result != nil {
			c.logger.Info("collected eth price", "source", source.Name(), "price", result.Price)
			return result, nil
		}
		if !errors.Is(err, ErrNotSupported) {
			c.logger.Error("failed to collect eth price", "source", source.Name(), "error", err)
		}
	}

	return nil, fmt.Errorf("failed to collect eth price from all sources")
}

// SubscribeToETHPrice implements DataCollector interface
func (c *MultiSourceCollector) SubscribeToETHPrice(ctx context.Context, refreshInterval time.Duration) (<-chan models.PriceTick, error) {
	if refreshInterval <= 0 {
		return nil, fmt.Errorf("invalid refresh interval: %s", refreshInterval)
	}

	out := make(chan models.PriceTick, 100)

	go func() {
		defer close(out)

		ticker := time.NewTicker(refreshInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				tick, err := c.CollectETHPrice(ctx)
				if err != nil {
					continue
				}

				select {
				case out <- *tick:
				default:
					c.logger.Error("channel full, dropping price tick", "source", tick.Source)
				}
			}
		}
	}()

	return out, nil
}
