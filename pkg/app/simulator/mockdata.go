package simulator

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/uhyunpark/swapchecker/pkg/app/core/quote"
	"github.com/uhyunpark/swapchecker/pkg/app/core/token"
)

// Exchanges are the mock liquidity sources, in aggregation order
var Exchanges = []string{"Uniswap", "PancakeSwap", "CowSwap", "Matcha", "Sushi"}

// MockTableConfig shapes the generated quote tables
type MockTableConfig struct {
	RateSpread   float64 // max deviation from 1.0 (e.g. 0.005 = ±0.5%)
	MinLiquidity uint64
	MaxLiquidity uint64
	ListingProb  float64 // chance that a source lists a given directed pair
}

// DefaultMockTable: stablecoin pairs near parity, 1M-50M liquidity
func DefaultMockTable() MockTableConfig {
	return MockTableConfig{
		RateSpread:   0.005,
		MinLiquidity: 1_000_000,
		MaxLiquidity: 50_000_000,
		ListingProb:  0.85,
	}
}

// MockBooks generates one book per exchange over the directed pairs of the catalog.
// The first exchange lists every pair so the catalog is always fully tradeable.
func MockBooks(rng *rand.Rand, network token.Network, cfg MockTableConfig) ([]*quote.QuoteBook, error) {
	if cfg.MaxLiquidity < cfg.MinLiquidity {
		return nil, fmt.Errorf("mock table: max liquidity %d < min %d", cfg.MaxLiquidity, cfg.MinLiquidity)
	}

	books := make([]*quote.QuoteBook, 0, len(Exchanges))
	for i, name := range Exchanges {
		var quotes []quote.PairQuote
		for _, from := range token.All {
			for _, to := range token.All {
				if from == to {
					continue
				}
				if i > 0 && rng.Float64() > cfg.ListingProb {
					continue
				}
				quotes = append(quotes, quote.PairQuote{
					From:      from,
					To:        to,
					Rate:      randomRate(rng, cfg.RateSpread),
					Liquidity: cfg.MinLiquidity + uint64(rng.Int63n(int64(cfg.MaxLiquidity-cfg.MinLiquidity)+1)),
				})
			}
		}

		book, err := quote.NewQuoteBook(name, network, quotes)
		if err != nil {
			return nil, err
		}
		books = append(books, book)
	}
	return books, nil
}

// randomRate returns 1 ± spread rounded to 4 decimals
func randomRate(rng *rand.Rand, spread float64) float64 {
	r := 1 + (rng.Float64()*2-1)*spread
	return math.Round(r*10000) / 10000
}

// RandomBalances gives a new user a random starting ledger.
// Each token has a 75% chance of being funded with 100-10,000 units (2 decimals).
func RandomBalances(rng *rand.Rand) map[token.Token]float64 {
	balances := make(map[token.Token]float64)
	for _, t := range token.All {
		if rng.Intn(100) >= 75 {
			continue
		}
		amount := 100 + rng.Float64()*9900
		balances[t] = math.Round(amount*100) / 100
	}
	return balances
}
