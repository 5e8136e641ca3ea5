package quote

import (
	"errors"
	"fmt"

	"github.com/uhyunpark/swapchecker/pkg/app/core/token"
)

var (
	// ErrPairNotSupported: no directed pair found (at aggregator level: no source could fill)
	ErrPairNotSupported = errors.New("pair not supported")

	// ErrInsufficientLiquidity: pair exists but amount exceeds the source's liquidity ceiling
	ErrInsufficientLiquidity = errors.New("insufficient liquidity")
)

// PairQuote is a directed offer: From -> To at Rate, bounded by Liquidity
// (USDT->USDC and USDC->USDT are distinct quotes and need not be inverses)
type PairQuote struct {
	From      token.Token `json:"from"`
	To        token.Token `json:"to"`
	Rate      float64     `json:"rate"`
	Liquidity uint64      `json:"liquidity"` // max request amount, not a depleting pool
}

type pairKey struct {
	from, to token.Token
}

// QuoteBook holds one liquidity source's pair quotes
// Read-only after construction
type QuoteBook struct {
	source  string
	network token.Network
	quotes  []PairQuote
	index   map[pairKey]int // (from,to) -> position in quotes
}

// NewQuoteBook builds a book, enforcing at most one quote per directed pair
func NewQuoteBook(source string, network token.Network, quotes []PairQuote) (*QuoteBook, error) {
	if source == "" {
		return nil, fmt.Errorf("quote book: empty source name")
	}
	if !network.Valid() {
		return nil, fmt.Errorf("quote book %s: %w", source, token.ErrUnknownNetwork)
	}

	b := &QuoteBook{
		source:  source,
		network: network,
		quotes:  make([]PairQuote, 0, len(quotes)),
		index:   make(map[pairKey]int, len(quotes)),
	}

	for _, q := range quotes {
		if !q.From.Valid() || !q.To.Valid() {
			return nil, fmt.Errorf("quote book %s: %w in pair %s->%s", source, token.ErrUnknownToken, q.From, q.To)
		}
		if q.From == q.To {
			return nil, fmt.Errorf("quote book %s: self pair %s->%s", source, q.From, q.To)
		}
		if !(q.Rate > 0) {
			return nil, fmt.Errorf("quote book %s: rate for %s->%s must be positive, got %v", source, q.From, q.To, q.Rate)
		}
		k := pairKey{q.From, q.To}
		if _, dup := b.index[k]; dup {
			return nil, fmt.Errorf("quote book %s: duplicate pair %s->%s", source, q.From, q.To)
		}
		b.index[k] = len(b.quotes)
		b.quotes = append(b.quotes, q)
	}

	return b, nil
}

func (b *QuoteBook) Source() string         { return b.source }
func (b *QuoteBook) Network() token.Network { return b.network }

// Pairs returns a copy of the quotes in insertion order
func (b *QuoteBook) Pairs() []PairQuote {
	out := make([]PairQuote, len(b.quotes))
	copy(out, b.quotes)
	return out
}

// Lookup returns the quote for a directed pair
func (b *QuoteBook) Lookup(from, to token.Token) (PairQuote, bool) {
	i, ok := b.index[pairKey{from, to}]
	if !ok {
		return PairQuote{}, false
	}
	return b.quotes[i], true
}

// Quote returns the amount of `to` received for `amount` of `from`.
// No fee is deducted and the book's liquidity is not consumed.
func (b *QuoteBook) Quote(from, to token.Token, amount float64) (float64, error) {
	q, ok := b.Lookup(from, to)
	if !ok {
		return 0, fmt.Errorf("%s %s->%s: %w", b.source, from, to, ErrPairNotSupported)
	}
	if float64(q.Liquidity) < amount {
		return 0, fmt.Errorf("%s %s->%s: %w: liquidity %d < amount %v", b.source, from, to, ErrInsufficientLiquidity, q.Liquidity, amount)
	}
	return amount * q.Rate, nil
}

var _ Quoter = (*QuoteBook)(nil)
