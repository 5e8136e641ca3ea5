package simulator

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/uhyunpark/swapchecker/pkg/app/core/swap"
	"github.com/uhyunpark/swapchecker/pkg/app/core/token"
	"github.com/uhyunpark/swapchecker/pkg/crypto"
)

// FeederConfig controls demo swap generation
type FeederConfig struct {
	Interval time.Duration // one swap per tick
	Users    int           // demo wallets onboarded at start
	Seed     int64         // 0 = time-based
}

// DefaultFeederConfig returns reasonable defaults for a local demo
func DefaultFeederConfig() FeederConfig {
	return FeederConfig{
		Interval: 500 * time.Millisecond,
		Users:    10,
	}
}

// FeederStats counts outcomes of generated swaps
type FeederStats struct {
	Attempted int
	Committed int
	Failed    int
}

// SwapGenerator draws random swap requests for a fixed set of wallets
type SwapGenerator struct {
	wallets []common.Address
	rng     *rand.Rand
}

// NewSwapGenerator creates a generator over the given wallets
func NewSwapGenerator(wallets []common.Address, seed int64) *SwapGenerator {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &SwapGenerator{
		wallets: wallets,
		rng:     rand.New(rand.NewSource(seed)),
	}
}

// Next returns a random request: random wallet, random distinct pair,
// amount of 1-50% of the given balance lookup (at least 1 unit)
func (g *SwapGenerator) Next(balanceOf func(common.Address, token.Token) float64) swap.Request {
	addr := g.wallets[g.rng.Intn(len(g.wallets))]

	from := token.All[g.rng.Intn(len(token.All))]
	to := from
	for to == from {
		to = token.All[g.rng.Intn(len(token.All))]
	}

	amount := 1.0
	if bal := balanceOf(addr, from); bal > 2 {
		amount = math.Round(bal*(0.01+g.rng.Float64()*0.49)*100) / 100
	}

	return swap.Request{Address: addr, From: from, To: to, Amount: amount}
}

// StartSwapFeeder onboards demo wallets and keeps submitting random swaps
// until ctx is done. Returns a cancel function to stop the feeder and a
// channel that yields the final stats once it has stopped.
func StartSwapFeeder(ctx context.Context, app *App, cfg FeederConfig) (context.CancelFunc, <-chan FeederStats) {
	feedCtx, cancel := context.WithCancel(ctx)
	done := make(chan FeederStats, 1)

	wallets := make([]common.Address, 0, cfg.Users)
	for i := 0; i < cfg.Users; i++ {
		addr, err := crypto.NewWalletAddress()
		if err != nil {
			app.logger.Warnw("swapgen_wallet_failed", "err", err)
			continue
		}
		if _, err := app.Onboard(addr, app.Users.SupportedNetwork(), nil); err != nil {
			app.logger.Warnw("swapgen_onboard_failed", "address", addr.Hex(), "err", err)
			continue
		}
		wallets = append(wallets, addr)
	}

	if len(wallets) == 0 {
		done <- FeederStats{}
		return cancel, done
	}

	gen := NewSwapGenerator(wallets, cfg.Seed)
	balanceOf := func(addr common.Address, t token.Token) float64 {
		u, ok := app.Users.Get(addr)
		if !ok {
			return 0
		}
		return u.Balance(t)
	}

	go func() {
		ticker := time.NewTicker(cfg.Interval)
		defer ticker.Stop()

		var stats FeederStats
		start := time.Now()
		lastReport := start

		app.logger.Infow("swapgen_started", "wallets", len(wallets), "interval", cfg.Interval.String())

		for {
			select {
			case <-feedCtx.Done():
				app.logger.Infow("swapgen_stopped",
					"attempted", stats.Attempted,
					"committed", stats.Committed,
					"failed", stats.Failed,
					"elapsed", time.Since(start).Round(time.Second).String())
				done <- stats
				return

			case <-ticker.C:
				req := gen.Next(balanceOf)
				stats.Attempted++
				if _, err := app.Swap(feedCtx, req); err != nil {
					stats.Failed++
				} else {
					stats.Committed++
				}

				if time.Since(lastReport) >= 10*time.Second {
					lastReport = time.Now()
					app.logger.Infow("swapgen_stats",
						"attempted", stats.Attempted,
						"committed", stats.Committed,
						"failed", stats.Failed)
				}
			}
		}
	}()

	return cancel, done
}
