package account

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/uhyunpark/swapchecker/pkg/app/core/token"
)

var (
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrBalanceNotFound is an internal consistency failure: a debit reached a
	// token with no entry after the sufficiency check passed
	ErrBalanceNotFound = errors.New("balance not found")

	ErrUserNotFound     = errors.New("user not found")
	ErrUserExists       = errors.New("user already exists")
	ErrIncorrectNetwork = errors.New("incorrect network")
	ErrNegativeBalance  = errors.New("negative balance")
)

// User is a wallet bound to one network with a per-token balance ledger
type User struct {
	Address common.Address // identity key, never changes
	Network token.Network

	// Absent entries read as zero; an entry appears on first credit
	Balances map[token.Token]float64
}

// NewUser creates a user with an empty ledger
func NewUser(addr common.Address, network token.Network) *User {
	return &User{
		Address:  addr,
		Network:  network,
		Balances: make(map[token.Token]float64),
	}
}

// Balance returns the stored balance, zero if absent
func (u *User) Balance(t token.Token) float64 {
	return u.Balances[t]
}

// HasSufficientBalance reports whether balance(t) >= amount
func (u *User) HasSufficientBalance(t token.Token, amount float64) bool {
	return u.Balances[t] >= amount
}

// Debit reduces the balance of t by amount
func (u *User) Debit(t token.Token, amount float64) error {
	if !u.HasSufficientBalance(t, amount) {
		return fmt.Errorf("%w: %s has %v %s, need %v", ErrInsufficientBalance, u.Address.Hex(), u.Balances[t], t, amount)
	}
	bal, ok := u.Balances[t]
	if !ok {
		return fmt.Errorf("%w: %s %s", ErrBalanceNotFound, u.Address.Hex(), t)
	}
	u.Balances[t] = bal - amount
	return nil
}

// Credit increases the balance of t by amount, creating the entry if needed
func (u *User) Credit(t token.Token, amount float64) {
	if u.Balances == nil {
		u.Balances = make(map[token.Token]float64)
	}
	u.Balances[t] += amount
}

// Clone returns a deep copy (used for read-only snapshots)
func (u *User) Clone() *User {
	c := &User{
		Address:  u.Address,
		Network:  u.Network,
		Balances: make(map[token.Token]float64, len(u.Balances)),
	}
	for t, bal := range u.Balances {
		c.Balances[t] = bal
	}
	return c
}

// Validate checks ledger invariants
func (u *User) Validate() error {
	if !u.Network.Valid() {
		return fmt.Errorf("user %s: %w", u.Address.Hex(), token.ErrUnknownNetwork)
	}
	for t, bal := range u.Balances {
		if !t.Valid() {
			return fmt.Errorf("user %s: %w: %d", u.Address.Hex(), token.ErrUnknownToken, uint8(t))
		}
		if bal < 0 {
			return fmt.Errorf("user %s: %w: %s %v", u.Address.Hex(), ErrNegativeBalance, t, bal)
		}
	}
	return nil
}
