package privacy

import (
	"fmt"
	"math"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

const (
	baseGasUnits = 150_000

	// DefaultETHPriceUSD is used when the caller has no live price.
	DefaultETHPriceUSD = 2000.0
)

// Fees 以 gwei 计价的 gas 费用
type Fees struct {
	BaseFeeGwei     float64 `json:"base_fee_gwei" yaml:"base_fee_gwei"`
	PriorityFeeGwei float64 `json:"priority_fee_gwei" yaml:"priority_fee_gwei"`
}

// DefaultFees is a fixed snapshot, not a live network reading. With these
// values the congestion bucket is always medium.
var DefaultFees = Fees{BaseFeeGwei: 30, PriorityFeeGwei: 2}

func (f Fees) total() float64 {
	return f.BaseFeeGwei + f.PriorityFeeGwei
}

// Congestion buckets the base fee.
func (f Fees) Congestion() Congestion {
	switch {
	case f.BaseFeeGwei < 20:
		return CongestionLow
	case f.BaseFeeGwei < 50:
		return CongestionMedium
	default:
		return CongestionHigh
	}
}

// EstimateGasCost 估算存款的 gas 费用与耗时
//
// amount is accepted for parity with callers but does not enter the fee
// formula. ethPriceUSD is optional and defaults to DefaultETHPriceUSD.
func EstimateGasCost(amount float64, level PrivacyLevel, ethPriceUSD ...float64) GasEstimate {
	price := DefaultETHPriceUSD
	if len(ethPriceUSD) > 0 {
		price = ethPriceUSD[0]
	}
	return EstimateGasCostWithFees(amount, level, price, DefaultFees)
}

// EstimateGasCostWithFees is EstimateGasCost with caller-supplied fees.
func EstimateGasCostWithFees(amount float64, level PrivacyLevel, ethPriceUSD float64, fees Fees) GasEstimate {
	_ = amount

	gasUnits := GasUnits(level)
	minutes := EstimatedMinutes(level)

	costETH, costUSD := gasCost(gasUnits, fees.total(), ethPriceUSD)

	return GasEstimate{
		EstimatedGas:      humanize.Comma(gasUnits),
		EstimatedCostETH:  costETH,
		EstimatedCostUSD:  costUSD,
		EstimatedTime:     fmt.Sprintf("%d min", minutes),
		NetworkCongestion: fees.Congestion(),
		GasUnits:          gasUnits,
		EstimatedMinutes:  minutes,
	}
}

// GasUnits returns the base deposit gas plus the tier surcharge.
func GasUnits(level PrivacyLevel) int64 {
	switch level {
	case LevelAdvanced:
		return baseGasUnits + 50_000 // timing randomization
	case LevelMaximum:
		return baseGasUnits + 120_000 // multiple hops
	default:
		return baseGasUnits
	}
}

// EstimatedMinutes 预计结算时间（分钟）
func EstimatedMinutes(level PrivacyLevel) int {
	switch level {
	case LevelAdvanced:
		return 8
	case LevelMaximum:
		return 20
	default:
		return 2
	}
}

// gasCost returns the ETH cost to 6 places and the USD cost to 2 places.
// decimal.NewFromFloat panics on NaN and Inf, so non-finite inputs fall back
// to float formatting.
func gasCost(gasUnits int64, gasPriceGwei, ethPriceUSD float64) (string, string) {
	if !finite(gasPriceGwei) || !finite(ethPriceUSD) {
		eth := float64(gasUnits) * gasPriceGwei / 1e9
		return strconv.FormatFloat(eth, 'f', 6, 64), strconv.FormatFloat(eth*ethPriceUSD, 'f', 2, 64)
	}

	eth := decimal.NewFromInt(gasUnits).
		Mul(decimal.NewFromFloat(gasPriceGwei)).
		Shift(-9)
	usd := eth.Mul(decimal.NewFromFloat(ethPriceUSD))

	return eth.StringFixed(6), usd.StringFixed(2)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
