package privacy

import (
	"math"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculatePrivacyScore(t *testing.T) {
	tests := []struct {
		name          string
		poolSize      float64
		activeMixers  float64
		anonymitySet  float64
		level         PrivacyLevel
		wantTotal     float64
		wantBreakdown Breakdown
	}{
		{
			name:         "current pool stats",
			poolSize:     52_000_000,
			activeMixers: 2345,
			anonymitySet: 10000,
			level:        LevelStandard,
			wantTotal:    54.8, // 15.6 + 11.725 + 20 + 7.5
			wantBreakdown: Breakdown{
				PoolLiquidity:     52.0,
				MixerActivity:     46.9,
				AnonymitySetSize:  66.7,
				TimeRandomization: 50.0,
			},
		},
		{
			name:      "empty pool",
			level:     LevelStandard,
			wantTotal: 7.5,
			wantBreakdown: Breakdown{
				TimeRandomization: 50,
			},
		},
		{
			name:         "saturated pool at maximum",
			poolSize:     250_000_000,
			activeMixers: 9000,
			anonymitySet: 15000,
			level:        LevelMaximum,
			wantTotal:    100,
			wantBreakdown: Breakdown{
				PoolLiquidity:     100,
				MixerActivity:     100,
				AnonymitySetSize:  100,
				TimeRandomization: 100,
			},
		},
		{
			name:         "advanced tier",
			poolSize:     10_000_000,
			activeMixers: 500,
			anonymitySet: 1500,
			level:        LevelAdvanced,
			wantTotal:    19.8, // 3 + 2.5 + 3 + 11.25
			wantBreakdown: Breakdown{
				PoolLiquidity:     10,
				MixerActivity:     10,
				AnonymitySetSize:  10,
				TimeRandomization: 75,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CalculatePrivacyScore(tt.poolSize, tt.activeMixers, tt.anonymitySet, tt.level)

			assert.Equal(t, tt.poolSize, got.PoolSize)
			assert.Equal(t, tt.activeMixers, got.ActiveMixers)
			assert.Equal(t, tt.anonymitySet, got.AnonymitySet)
			assert.InDelta(t, tt.wantTotal, got.TotalScore, 1e-9)
			assert.InDelta(t, tt.wantBreakdown.PoolLiquidity, got.Breakdown.PoolLiquidity, 1e-9)
			assert.InDelta(t, tt.wantBreakdown.MixerActivity, got.Breakdown.MixerActivity, 1e-9)
			assert.InDelta(t, tt.wantBreakdown.AnonymitySetSize, got.Breakdown.AnonymitySetSize, 1e-9)
			assert.InDelta(t, tt.wantBreakdown.TimeRandomization, got.Breakdown.TimeRandomization, 1e-9)
		})
	}
}

func TestCalculatePrivacyScore_Saturation(t *testing.T) {
	for _, poolSize := range []float64{100_000_000, 100_000_001, 1e12} {
		got := CalculatePrivacyScore(poolSize, 0, 0, LevelStandard)
		assert.Equal(t, 100.0, got.Breakdown.PoolLiquidity, "pool size %v", poolSize)
	}
	for _, mixers := range []float64{5000, 5001, 1e9} {
		got := CalculatePrivacyScore(0, mixers, 0, LevelStandard)
		assert.Equal(t, 100.0, got.Breakdown.MixerActivity, "mixers %v", mixers)
	}
	for _, set := range []float64{15000, 15001, 1e9} {
		got := CalculatePrivacyScore(0, 0, set, LevelStandard)
		assert.Equal(t, 100.0, got.Breakdown.AnonymitySetSize, "anonymity set %v", set)
	}
}

func TestCalculatePrivacyScore_WeightedSum(t *testing.T) {
	inputs := [][3]float64{
		{0, 0, 0},
		{52_000_000, 2345, 10000},
		{1_234_567, 17, 333},
		{99_999_999, 4999, 14999},
		{73_300_000, 1234, 7777},
	}

	for _, in := range inputs {
		for _, level := range Levels() {
			got := CalculatePrivacyScore(in[0], in[1], in[2], level)
			b := got.Breakdown
			sum := b.PoolLiquidity*0.30 + b.MixerActivity*0.25 + b.AnonymitySetSize*0.30 + b.TimeRandomization*0.15
			assert.InDelta(t, sum, got.TotalScore, 0.1+1e-9, "inputs %v level %s", in, level)
			assert.GreaterOrEqual(t, got.TotalScore, 0.0)
			assert.LessOrEqual(t, got.TotalScore, 100.0)
		}
	}
}

func TestCalculatePrivacyScore_TierMonotonicity(t *testing.T) {
	inputs := [][3]float64{
		{0, 0, 0},
		{52_000_000, 2345, 10000},
		{500_000_000, 10000, 20000},
	}

	for _, in := range inputs {
		standard := CalculatePrivacyScore(in[0], in[1], in[2], LevelStandard).TotalScore
		advanced := CalculatePrivacyScore(in[0], in[1], in[2], LevelAdvanced).TotalScore
		maximum := CalculatePrivacyScore(in[0], in[1], in[2], LevelMaximum).TotalScore

		assert.Greater(t, maximum, advanced, "inputs %v", in)
		assert.Greater(t, advanced, standard, "inputs %v", in)
	}
}

func TestCalculatePrivacyScore_UnvalidatedInputs(t *testing.T) {
	got := CalculatePrivacyScore(-50_000_000, 0, 0, LevelStandard)
	assert.InDelta(t, -50.0, got.Breakdown.PoolLiquidity, 1e-9)

	got = CalculatePrivacyScore(math.NaN(), 0, 0, LevelStandard)
	assert.True(t, math.IsNaN(got.Breakdown.PoolLiquidity))
	assert.True(t, math.IsNaN(got.TotalScore))

	// unknown tiers score like standard
	got = CalculatePrivacyScore(0, 0, 0, PrivacyLevel("ultra"))
	assert.Equal(t, 50.0, got.Breakdown.TimeRandomization)
}

func TestRoundOneDecimal(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{in: 0.25, want: 0.3},
		{in: 0.24, want: 0.2},
		{in: 66.6666, want: 66.7},
		{in: -0.25, want: -0.2},
		{in: 100, want: 100},
	}

	for _, tt := range tests {
		t.Run(strconv.FormatFloat(tt.in, 'f', -1, 64), func(t *testing.T) {
			assert.InDelta(t, tt.want, roundOneDecimal(tt.in), 1e-9)
		})
	}
}

func TestEstimateGasCost(t *testing.T) {
	tests := []struct {
		name    string
		level   PrivacyLevel
		price   []float64
		wantGas string
		wantETH string
		wantUSD string
		wantMin string
	}{
		{
			name:    "standard default price",
			level:   LevelStandard,
			wantGas: "150,000",
			wantETH: "0.004800",
			wantUSD: "9.60",
			wantMin: "2 min",
		},
		{
			name:    "advanced default price",
			level:   LevelAdvanced,
			wantGas: "200,000",
			wantETH: "0.006400",
			wantUSD: "12.80",
			wantMin: "8 min",
		},
		{
			name:    "maximum default price",
			level:   LevelMaximum,
			wantGas: "270,000",
			wantETH: "0.008640",
			wantUSD: "17.28",
			wantMin: "20 min",
		},
		{
			name:    "standard custom price",
			level:   LevelStandard,
			price:   []float64{3500.5},
			wantGas: "150,000",
			wantETH: "0.004800",
			wantUSD: "16.80",
			wantMin: "2 min",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EstimateGasCost(1.5, tt.level, tt.price...)

			assert.Equal(t, tt.wantGas, got.EstimatedGas)
			assert.Equal(t, tt.wantETH, got.EstimatedCostETH)
			assert.Equal(t, tt.wantUSD, got.EstimatedCostUSD)
			assert.Equal(t, tt.wantMin, got.EstimatedTime)
			assert.Equal(t, CongestionMedium, got.NetworkCongestion)
		})
	}
}

func TestEstimateGasCost_AmountIndependent(t *testing.T) {
	for _, level := range Levels() {
		base := EstimateGasCost(0, level)
		for _, amount := range []float64{0.01, 1, 1000, 1e9} {
			assert.Equal(t, base, EstimateGasCost(amount, level), "amount %v level %s", amount, level)
		}
	}

	assert.Equal(t, "270,000", EstimateGasCost(42, LevelMaximum).EstimatedGas)
	assert.Equal(t, "150,000", EstimateGasCost(42, LevelStandard).EstimatedGas)
}

func TestEstimateGasCost_USDMatchesETH(t *testing.T) {
	for _, level := range Levels() {
		for _, price := range []float64{1, 1834.27, 2000, 4123.99} {
			got := EstimateGasCost(1, level, price)

			usd, err := strconv.ParseFloat(got.EstimatedCostUSD, 64)
			require.NoError(t, err)

			costETH := float64(GasUnits(level)) * 32 / 1e9
			assert.InDelta(t, costETH*price, usd, 1e-2, "level %s price %v", level, price)
		}
	}
}

func TestEstimateGasCost_NonFinitePrice(t *testing.T) {
	assert.NotPanics(t, func() {
		got := EstimateGasCost(1, LevelStandard, math.NaN())
		assert.Equal(t, "0.004800", got.EstimatedCostETH)
		assert.Equal(t, "NaN", got.EstimatedCostUSD)
	})
}

func TestFees_Congestion(t *testing.T) {
	tests := []struct {
		baseFee float64
		want    Congestion
	}{
		{baseFee: 5, want: CongestionLow},
		{baseFee: 19.9, want: CongestionLow},
		{baseFee: 20, want: CongestionMedium},
		{baseFee: 30, want: CongestionMedium},
		{baseFee: 50, want: CongestionHigh},
		{baseFee: 120, want: CongestionHigh},
	}

	for _, tt := range tests {
		t.Run(string(tt.want), func(t *testing.T) {
			fees := Fees{BaseFeeGwei: tt.baseFee, PriorityFeeGwei: 2}
			assert.Equal(t, tt.want, fees.Congestion())

			got := EstimateGasCostWithFees(1, LevelStandard, DefaultETHPriceUSD, fees)
			assert.Equal(t, tt.want, got.NetworkCongestion)
		})
	}
}

func TestEstimateGasCostWithFees(t *testing.T) {
	got := EstimateGasCostWithFees(1, LevelMaximum, 2500, Fees{BaseFeeGwei: 10, PriorityFeeGwei: 1.5})

	assert.Equal(t, "270,000", got.EstimatedGas)
	assert.Equal(t, "0.003105", got.EstimatedCostETH)
	assert.Equal(t, "7.76", got.EstimatedCostUSD)
	assert.Equal(t, CongestionLow, got.NetworkCongestion)
}

func TestParsePrivacyLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    PrivacyLevel
		wantErr bool
	}{
		{in: "standard", want: LevelStandard},
		{in: "Advanced", want: LevelAdvanced},
		{in: " MAXIMUM ", want: LevelMaximum},
		{in: "", wantErr: true},
		{in: "paranoid", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParsePrivacyLevel(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnknownPrivacyLevel)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewPoolStats(t *testing.T) {
	tests := []struct {
		name    string
		in      [3]float64
		wantErr bool
	}{
		{name: "valid", in: [3]float64{52_000_000, 2345, 10000}},
		{name: "zero", in: [3]float64{0, 0, 0}},
		{name: "negative pool", in: [3]float64{-1, 0, 0}, wantErr: true},
		{name: "negative mixers", in: [3]float64{0, -5, 0}, wantErr: true},
		{name: "nan anonymity set", in: [3]float64{0, 0, math.NaN()}, wantErr: true},
		{name: "infinite pool", in: [3]float64{math.Inf(1), 0, 0}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stats, err := NewPoolStats(tt.in[0], tt.in[1], tt.in[2])
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidInput)
				return
			}
			require.NoError(t, err)

			want := CalculatePrivacyScore(tt.in[0], tt.in[1], tt.in[2], LevelAdvanced)
			assert.Equal(t, want, stats.Score(LevelAdvanced))
		})
	}
}

func TestScoreGrade(t *testing.T) {
	assert.Equal(t, GradeExcellent, ScoreGrade(98.5))
	assert.Equal(t, GradeGood, ScoreGrade(70))
	assert.Equal(t, GradeFair, ScoreGrade(54.8))
	assert.Equal(t, GradePoor, ScoreGrade(7.5))
}

func TestFormatCompact(t *testing.T) {
	assert.Equal(t, "52.0M", FormatCompact(52_000_000))
	assert.Equal(t, "2.3K", FormatCompact(2345))
	assert.Equal(t, "10.0K", FormatCompact(10000))
	assert.Equal(t, "999", FormatCompact(999))
}

func TestWeights(t *testing.T) {
	var sum float64
	for _, w := range Weights() {
		sum += w
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
}
