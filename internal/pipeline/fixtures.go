package pipeline

import (
	"context"
	"fmt"

	"market-structure-lab/internal/domain"
	"market-structure-lab/internal/storage"
)

// Fixture start time: 2024-01-01 00:00:00 UTC.
const fixtureStartMs = 1704067200000

// FixtureSymbols are the demonstration series LoadFixtures stores.
var FixtureSymbols = []struct {
	Symbol string
	Price  float64
	Seed   uint64
}{
	{Symbol: "EURUSD", Price: 1.10, Seed: 1},
	{Symbol: "XAUUSD", Price: 2050, Seed: 2},
	{Symbol: "BTCUSDT", Price: 42000, Seed: 3},
}

// FixtureSeries generates a deterministic random-walk series without ATR.
// Bar step follows the timeframe (M1..D1, default one hour).
func FixtureSeries(symbol, timeframe string, price float64, n int, seed uint64) *domain.BarSeries {
	state := seed
	next := func() float64 {
		state = state*6364136223846793005 + 1442695040888963407
		return float64(state>>11) / float64(1<<53)
	}
	step := timeframeMs(timeframe)
	scale := price * 0.002

	s := &domain.BarSeries{Symbol: symbol, Timeframe: timeframe, Bars: make([]domain.Bar, 0, n)}
	for i := 0; i < n; i++ {
		open := price
		closePrice := open + (next()-0.5)*2*scale
		s.Bars = append(s.Bars, domain.Bar{
			TimestampMs: fixtureStartMs + int64(i)*step,
			Open:        open,
			High:        max(open, closePrice) + next()*scale,
			Low:         min(open, closePrice) - next()*scale,
			Close:       closePrice,
			Volume:      float64(100 + int(next()*900)),
		})
		price = closePrice
	}
	return s
}

// LoadFixtures populates a bar store with n bars per fixture symbol.
func LoadFixtures(ctx context.Context, bars storage.BarStore, timeframe string, n int) error {
	for _, f := range FixtureSymbols {
		s := FixtureSeries(f.Symbol, timeframe, f.Price, n, f.Seed)
		if err := bars.InsertBulk(ctx, s.Symbol, s.Timeframe, s.Bars); err != nil {
			return fmt.Errorf("load fixture %s: %w", f.Symbol, err)
		}
	}
	return nil
}

func timeframeMs(tf string) int64 {
	switch tf {
	case "M1", "1m":
		return 60_000
	case "M5", "5m":
		return 300_000
	case "M15", "15m":
		return 900_000
	case "M30", "30m":
		return 1_800_000
	case "H4", "4h":
		return 14_400_000
	case "D1", "1d":
		return 86_400_000
	default:
		return 3_600_000
	}
}
