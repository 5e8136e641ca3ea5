package swap

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/uhyunpark/swapchecker/pkg/app/core/account"
	"github.com/uhyunpark/swapchecker/pkg/app/core/quote"
	"github.com/uhyunpark/swapchecker/pkg/util"
)

var ErrInvalidRequest = errors.New("invalid swap request")

// Executor orchestrates one swap at a time per user:
// resolve user -> precheck balance -> best quote -> debit/credit.
// Balances change only when every step succeeds.
type Executor struct {
	users    *account.UserStore
	quotes   Quoting
	recorder Recorder // optional
	logger   *zap.SugaredLogger
	clock    util.Clock

	// OnSwap is called after a commit (e.g. websocket broadcast)
	OnSwap func(rec Record)
}

// NewExecutor wires the executor to its stores; recorder may be nil
func NewExecutor(users *account.UserStore, quotes Quoting, recorder Recorder, logger *zap.SugaredLogger) *Executor {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Executor{
		users:    users,
		quotes:   quotes,
		recorder: recorder,
		logger:   logger,
		clock:    util.RealClock{},
	}
}

// SetClock overrides the time source used for record timestamps
func (e *Executor) SetClock(c util.Clock) { e.clock = c }

// Execute runs a swap request. Failure kinds are returned unchanged from the
// component that raised them (account.ErrUserNotFound, account.ErrInsufficientBalance,
// quote.ErrPairNotSupported, ErrInvalidRequest); on any failure no balance moves.
func (e *Executor) Execute(ctx context.Context, req Request) (quote.SwapResult, error) {
	if err := validate(req); err != nil {
		e.fail(req, Start, err)
		return quote.SwapResult{}, err
	}

	var (
		result quote.SwapResult
		state  = Start
	)

	err := e.users.WithUser(req.Address, func(u *account.User) error {
		state = UserResolved

		// Checked against the request amount, before any source is consulted
		if !u.HasSufficientBalance(req.From, req.Amount) {
			return fmt.Errorf("%w: have %v %s, need %v", account.ErrInsufficientBalance, u.Balance(req.From), req.From, req.Amount)
		}
		state = BalancePrechecked

		if err := ctx.Err(); err != nil {
			return err
		}

		res, err := e.quotes.BestQuote(req.From, req.To, req.Amount)
		if err != nil {
			return err
		}
		state = QuoteObtained

		// Debit cannot fail after the precheck under the same lock
		if err := u.Debit(req.From, req.Amount); err != nil {
			return err
		}
		u.Credit(req.To, res.Received)
		state = Committed

		result = res
		return nil
	})
	if err != nil {
		e.fail(req, state, err)
		return quote.SwapResult{}, err
	}

	rec := Record{
		ID:        uuid.New(),
		Address:   req.Address,
		From:      req.From,
		To:        req.To,
		Amount:    req.Amount,
		Received:  result.Received,
		Source:    result.Source,
		Slippage:  result.Slippage,
		Timestamp: e.clock.Now().UnixMilli(),
	}

	e.logger.Infow("swap_committed",
		"id", rec.ID.String(),
		"address", req.Address.Hex(),
		"from", req.From.String(),
		"to", req.To.String(),
		"amount", req.Amount,
		"received", result.Received,
		"source", result.Source)

	if e.recorder != nil {
		if err := e.recorder.RecordSwap(rec); err != nil {
			e.logger.Warnw("swap_journal_failed", "id", rec.ID.String(), "err", err)
		}
	}
	if e.OnSwap != nil {
		e.OnSwap(rec)
	}

	return result, nil
}

func (e *Executor) fail(req Request, reached State, err error) {
	e.logger.Infow("swap_failed",
		"address", req.Address.Hex(),
		"from", req.From.String(),
		"to", req.To.String(),
		"amount", req.Amount,
		"reached", reached.String(),
		"err", err)
}

func validate(req Request) error {
	if !req.From.Valid() || !req.To.Valid() {
		return fmt.Errorf("%w: unknown token in %s->%s", ErrInvalidRequest, req.From, req.To)
	}
	if req.From == req.To {
		return fmt.Errorf("%w: from and to are both %s", ErrInvalidRequest, req.From)
	}
	if !(req.Amount > 0) {
		return fmt.Errorf("%w: amount must be positive, got %v", ErrInvalidRequest, req.Amount)
	}
	return nil
}
