package static

import (
	"context"
	"time"

	"github.com/songzhibin97/masquerade/internal/models"
)

// Source serves a fixed snapshot of pool statistics and a fallback price.
// It is the last resort in a MultiSourceCollector.
type Source struct {
	stats models.PoolStats
	price float64
}

func NewSource(stats models.PoolStats, fallbackPrice float64) *Source {
	return &Source{
		stats: stats,
		price: fallbackPrice,
	}
}

// DefaultPoolStats 当前展示用的隐私池数据
func DefaultPoolStats() models.PoolStats {
	return models.PoolStats{
		PoolSize:     52_000_000,
		ActiveMixers: 2345,
		AnonymitySet: 10000,
	}
}

func (s *Source) Name() string {
	return "static"
}

func (s *Source) CollectPoolStats(ctx context.Context) (*models.PoolStats, error) {
	stats := s.stats
	stats.Source = s.Name()
	stats.UpdatedAt = time.Now()
	return &stats, nil
}

func (s *Source) CollectETHPrice(ctx context.Context) (*models.PriceTick, error) {
	return &models.PriceTick{
		Source:    s.Name(),
		Symbol:    "ETHUSD",
		Price:     s.price,
		Timestamp: time.Now(),
	}, nil
}
