package quote

import (
	"fmt"

	"github.com/uhyunpark/swapchecker/pkg/app/core/token"
)

// DefaultSlippage is a fixed placeholder reported with every result.
// It is not derived from quote data; there is no market-impact model.
const DefaultSlippage = 0.005

// Quoter is one liquidity source able to price a directed pair
type Quoter interface {
	Source() string
	Quote(from, to token.Token, amount float64) (float64, error)
}

// SwapResult is the outcome of a successful best-quote search
type SwapResult struct {
	Source   string  `json:"source"`
	Received float64 `json:"received"`
	Slippage float64 `json:"slippage"`
}

// BestQuote asks every quoter for (from, to, amount) and keeps the greatest
// received amount. Failing sources are skipped. Ties go to the quoter that
// comes first in the slice, so results are deterministic for a fixed order.
//
// When no source succeeds the error is ErrPairNotSupported, whether the pair is
// unlisted everywhere or listed but short of liquidity everywhere.
func BestQuote(quoters []Quoter, from, to token.Token, amount float64) (SwapResult, error) {
	return bestQuote(quoters, from, to, amount, DefaultSlippage)
}

func bestQuote(quoters []Quoter, from, to token.Token, amount, slippage float64) (SwapResult, error) {
	var (
		best  SwapResult
		found bool
	)

	for _, q := range quoters {
		received, err := q.Quote(from, to, amount)
		if err != nil {
			continue
		}
		if !found || received > best.Received {
			best = SwapResult{Source: q.Source(), Received: received}
			found = true
		}
	}

	if !found {
		return SwapResult{}, fmt.Errorf("no source can fill %v %s->%s: %w", amount, from, to, ErrPairNotSupported)
	}

	best.Slippage = slippage
	return best, nil
}

// SourceQuote is one source's outcome for a pair, for display
type SourceQuote struct {
	Source   string  `json:"source"`
	Received float64 `json:"received,omitempty"`
	Error    string  `json:"error,omitempty"`
}

// Aggregator binds an ordered set of books to a slippage placeholder
type Aggregator struct {
	Books    *BookRegistry
	Slippage float64
}

// NewAggregator creates an aggregator over a registry using DefaultSlippage
func NewAggregator(books *BookRegistry) *Aggregator {
	return &Aggregator{Books: books, Slippage: DefaultSlippage}
}

// BestQuote runs the best-quote search over all registered books in registration order
func (a *Aggregator) BestQuote(from, to token.Token, amount float64) (SwapResult, error) {
	return bestQuote(a.Books.Quoters(), from, to, amount, a.Slippage)
}

// QuoteAll returns every source's individual outcome, in registration order
func (a *Aggregator) QuoteAll(from, to token.Token, amount float64) []SourceQuote {
	quoters := a.Books.Quoters()
	out := make([]SourceQuote, 0, len(quoters))
	for _, q := range quoters {
		sq := SourceQuote{Source: q.Source()}
		received, err := q.Quote(from, to, amount)
		if err != nil {
			sq.Error = err.Error()
		} else {
			sq.Received = received
		}
		out = append(out, sq)
	}
	return out
}
