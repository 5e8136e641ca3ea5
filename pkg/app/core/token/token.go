package token

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnknownToken   = errors.New("unknown token")
	ErrUnknownNetwork = errors.New("unknown network")
)

// Token identifies a fungible token the engine understands
type Token uint8

const (
	USDC Token = iota + 1
	USDT
	BUSD
	DAI
)

// All lists the catalog in a stable order (used for mock tables and iteration)
var All = []Token{USDC, USDT, BUSD, DAI}

func (t Token) String() string {
	switch t {
	case USDC:
		return "USDC"
	case USDT:
		return "USDT"
	case BUSD:
		return "BUSD"
	case DAI:
		return "DAI"
	default:
		return "Unknown"
	}
}

// Valid reports whether t belongs to the catalog
func (t Token) Valid() bool {
	return t >= USDC && t <= DAI
}

// ParseToken resolves a symbol (case-insensitive) to a Token
func ParseToken(s string) (Token, error) {
	sym := strings.ToUpper(strings.TrimSpace(s))
	for _, t := range All {
		if t.String() == sym {
			return t, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownToken, s)
}

func (t Token) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownToken, uint8(t))
	}
	return []byte(t.String()), nil
}

func (t *Token) UnmarshalText(b []byte) error {
	parsed, err := ParseToken(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Network is the chain a user or liquidity source operates on
type Network uint8

const (
	Ethereum Network = iota + 1
	BNBChain
	Polygon
)

var Networks = []Network{Ethereum, BNBChain, Polygon}

func (n Network) String() string {
	switch n {
	case Ethereum:
		return "Ethereum"
	case BNBChain:
		return "BNBChain"
	case Polygon:
		return "Polygon"
	default:
		return "Unknown"
	}
}

func (n Network) Valid() bool {
	return n >= Ethereum && n <= Polygon
}

// ParseNetwork resolves a network name (case-insensitive)
func ParseNetwork(s string) (Network, error) {
	name := strings.TrimSpace(s)
	for _, n := range Networks {
		if strings.EqualFold(n.String(), name) {
			return n, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownNetwork, s)
}

func (n Network) MarshalText() ([]byte, error) {
	if !n.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownNetwork, uint8(n))
	}
	return []byte(n.String()), nil
}

func (n *Network) UnmarshalText(b []byte) error {
	parsed, err := ParseNetwork(string(b))
	if err != nil {
		return err
	}
	*n = parsed
	return nil
}
