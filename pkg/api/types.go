package api

import (
	"github.com/uhyunpark/swapchecker/pkg/app/core/quote"
)

// API request and response types for REST endpoints and WebSocket messages

// ==============================
// REST Types
// ==============================

// SourceInfo describes one liquidity source and the pairs it lists
type SourceInfo struct {
	Source  string            `json:"source"`
	Network string            `json:"network"`
	Pairs   []quote.PairQuote `json:"pairs"`
}

// QuoteResponse is the best quote for a pair and amount
type QuoteResponse struct {
	From     string  `json:"from"`
	To       string  `json:"to"`
	Amount   float64 `json:"amount"`
	Source   string  `json:"source"`
	Received float64 `json:"received"`
	Slippage float64 `json:"slippage"`
}

// QuotesResponse lists every source's outcome for a pair and amount
type QuotesResponse struct {
	From    string              `json:"from"`
	To      string              `json:"to"`
	Amount  float64             `json:"amount"`
	Sources []quote.SourceQuote `json:"sources"`
}

// OnboardRequest registers a wallet. Omitted balances are drawn at random.
type OnboardRequest struct {
	Address  string             `json:"address"`
	Network  string             `json:"network"`
	Balances map[string]float64 `json:"balances,omitempty"` // token symbol -> amount
}

// UserInfo is a user's network and balances
type UserInfo struct {
	Address  string             `json:"address"`
	Network  string             `json:"network"`
	Balances map[string]float64 `json:"balances"`
}

// SwapRequest asks to exchange Amount of From for To
type SwapRequest struct {
	Address string  `json:"address"`
	From    string  `json:"from"`
	To      string  `json:"to"`
	Amount  float64 `json:"amount"`
}

// SwapResponse is a committed swap
type SwapResponse struct {
	Status   string  `json:"status"` // "committed"
	Source   string  `json:"source"`
	Received float64 `json:"received"`
	Slippage float64 `json:"slippage"`
}

// SwapHistoryEntry is one journaled swap
type SwapHistoryEntry struct {
	ID        string  `json:"id"`
	From      string  `json:"from"`
	To        string  `json:"to"`
	Amount    float64 `json:"amount"`
	Received  float64 `json:"received"`
	Source    string  `json:"source"`
	Slippage  float64 `json:"slippage"`
	Timestamp int64   `json:"timestamp"` // Unix milliseconds
}

// ErrorResponse represents an API error
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// ==============================
// WebSocket Message Types
// ==============================

// WSSubscribeRequest is sent by client to subscribe to channels
type WSSubscribeRequest struct {
	Op       string   `json:"op"`       // "subscribe" or "unsubscribe"
	Channels []string `json:"channels"` // e.g., ["swaps", "swaps:0xabc..."]
}

// SwapEvent is broadcast on "swaps" and "swaps:{address}" after every commit
type SwapEvent struct {
	Type      string  `json:"type"` // "swap"
	ID        string  `json:"id"`
	Address   string  `json:"address"`
	From      string  `json:"from"`
	To        string  `json:"to"`
	Amount    float64 `json:"amount"`
	Received  float64 `json:"received"`
	Source    string  `json:"source"`
	Timestamp int64   `json:"timestamp"`
}
