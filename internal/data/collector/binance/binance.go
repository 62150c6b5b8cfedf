package binance

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/adshao/go-binance/v2"

	"github.com/songzhibin97/masquerade/internal/data/collector"
	"github.com/songzhibin97/masquerade/internal/models"
)

const defaultSymbol = "ETHUSDT"

// PriceSource reads the ETH/USD spot price from Binance
type PriceSource struct {
	client *binance.Client
	symbol string
}

// NewPriceSource creates a price source. Binance public ticker endpoints do
// not need credentials, so apiKey and secretKey may be empty.
func NewPriceSource(apiKey, secretKey string, testnet ...bool) *PriceSource {
	testnet = append(testnet, false)
	if testnet[0] {
		binance.UseTestnet = true
	}

	return &PriceSource{
		client: binance.NewClient(apiKey, secretKey),
		symbol: defaultSymbol,
	}
}

func (b *PriceSource) Name() string {
	return "binance"
}

// CollectPoolStats implements collector.DataSource; Binance has no pool data.
func (b *PriceSource) CollectPoolStats(ctx context.Context) (*models.PoolStats, error) {
	return nil, fmt.Errorf("binance pool stats: %w", collector.ErrNotSupported)
}

// CollectETHPrice implements collector.DataSource
func (b *PriceSource) CollectETHPrice(ctx context.Context) (*models.PriceTick, error) {
	prices, err := b.client.NewListPricesService().Symbol(b.symbol).Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get ticker price: %w", err)
	}

	for _, p := range prices {
		if p.Symbol != b.symbol {
			continue
		}

		price, err := strconv.ParseFloat(p.Price, 64)
		if err != nil {
			return nil, fmt.Errorf("failed to parse price: %w", err)
		}
		if price <= 0 {
			return nil, fmt.Errorf("invalid price for %s: %s", b.symbol, p.Price)
		}

		return &models.PriceTick{
			Source:    b.Name(),
			Symbol:    b.symbol,
			Price:     price,
			Timestamp: time.Now(),
		}, nil
	}

	return nil, fmt.Errorf("price not found for symbol: %s", b.symbol)
}
