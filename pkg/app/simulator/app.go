package simulator

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/uhyunpark/swapchecker/params"
	"github.com/uhyunpark/swapchecker/pkg/app/core/account"
	"github.com/uhyunpark/swapchecker/pkg/app/core/quote"
	"github.com/uhyunpark/swapchecker/pkg/app/core/swap"
	"github.com/uhyunpark/swapchecker/pkg/app/core/token"
	"github.com/uhyunpark/swapchecker/pkg/storage"
)

// App wires the swap engine to its session state: books loaded once at
// startup, the user store, the executor and the swap journal
type App struct {
	Users      *account.UserStore
	Books      *quote.BookRegistry
	Aggregator *quote.Aggregator
	Executor   *swap.Executor
	Journal    *storage.Journal

	logger *zap.SugaredLogger

	rngMu sync.Mutex
	rng   *rand.Rand
}

// NewApp builds the mock books and opens the journal
func NewApp(cfg params.Config, logger *zap.SugaredLogger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	seed := cfg.Engine.MockSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	books, err := MockBooks(rng, cfg.Engine.SupportedNetwork, DefaultMockTable())
	if err != nil {
		return nil, fmt.Errorf("failed to build mock books: %w", err)
	}
	registry := quote.NewBookRegistry()
	for _, b := range books {
		if err := registry.Register(b); err != nil {
			return nil, err
		}
	}

	journal, err := storage.OpenJournal(cfg.Node.JournalPath)
	if err != nil {
		return nil, err
	}

	agg := quote.NewAggregator(registry)
	agg.Slippage = cfg.Engine.Slippage

	users := account.NewUserStore(cfg.Engine.SupportedNetwork)

	logger.Infow("app_initialized",
		"sources", registry.Count(),
		"supported_network", cfg.Engine.SupportedNetwork.String(),
		"seed", seed,
		"journal", journalLabel(cfg.Node.JournalPath))

	return &App{
		Users:      users,
		Books:      registry,
		Aggregator: agg,
		Executor:   swap.NewExecutor(users, agg, journal, logger),
		Journal:    journal,
		logger:     logger,
		rng:        rng,
	}, nil
}

func journalLabel(path string) string {
	if path == "" {
		return "memory"
	}
	return path
}

// Close closes the journal
func (a *App) Close() error {
	return a.Journal.Close()
}

// Onboard registers a user; nil balances draws a random starting ledger
func (a *App) Onboard(addr common.Address, network token.Network, balances map[token.Token]float64) (*account.User, error) {
	if balances == nil {
		a.rngMu.Lock()
		balances = RandomBalances(a.rng)
		a.rngMu.Unlock()
	}

	u, err := a.Users.Onboard(addr, network, balances)
	if err != nil {
		a.logger.Infow("onboard_rejected", "address", addr.Hex(), "network", network.String(), "err", err)
		return nil, err
	}
	a.logger.Infow("user_onboarded", "address", addr.Hex(), "tokens", len(u.Balances))
	return u, nil
}

// Swap executes a swap request
func (a *App) Swap(ctx context.Context, req swap.Request) (quote.SwapResult, error) {
	return a.Executor.Execute(ctx, req)
}

// History returns the latest journaled swaps of a user, newest first
func (a *App) History(addr common.Address, limit int) ([]swap.Record, error) {
	return a.Journal.RecentSwaps(addr, limit)
}

// OnSwap registers a commit observer
func (a *App) OnSwap(fn func(rec swap.Record)) {
	a.Executor.OnSwap = fn
}
