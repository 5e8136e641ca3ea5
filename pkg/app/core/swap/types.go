package swap

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"

	"github.com/uhyunpark/swapchecker/pkg/app/core/quote"
	"github.com/uhyunpark/swapchecker/pkg/app/core/token"
)

// Request asks to exchange Amount of From for To on behalf of Address
type Request struct {
	Address common.Address `json:"address"`
	From    token.Token    `json:"from"`
	To      token.Token    `json:"to"`
	Amount  float64        `json:"amount"`
}

// Record is a committed swap (history entry)
type Record struct {
	ID        uuid.UUID      `json:"id"`
	Address   common.Address `json:"address"`
	From      token.Token    `json:"from"`
	To        token.Token    `json:"to"`
	Amount    float64        `json:"amount"`
	Received  float64        `json:"received"`
	Source    string         `json:"source"`
	Slippage  float64        `json:"slippage"`
	Timestamp int64          `json:"timestamp"` // Unix milliseconds
}

// Recorder persists committed swaps
type Recorder interface {
	RecordSwap(rec Record) error
}

// Quoting is the best-quote capability the executor delegates to
type Quoting interface {
	BestQuote(from, to token.Token, amount float64) (quote.SwapResult, error)
}

// State is an executor stage, used in logs
type State int8

const (
	Start State = iota
	UserResolved
	BalancePrechecked
	QuoteObtained
	Committed
	Failed
)

func (s State) String() string {
	switch s {
	case Start:
		return "start"
	case UserResolved:
		return "user_resolved"
	case BalancePrechecked:
		return "balance_prechecked"
	case QuoteObtained:
		return "quote_obtained"
	case Committed:
		return "committed"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}
