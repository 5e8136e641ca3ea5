package account

import (
	"errors"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/uhyunpark/swapchecker/pkg/app/core/token"
)

var (
	alice = common.HexToAddress("0xAA00000000000000000000000000000000000000")
	bob   = common.HexToAddress("0xBB00000000000000000000000000000000000000")
)

// TestUserCreation tests a fresh ledger
func TestUserCreation(t *testing.T) {
	u := NewUser(alice, token.Ethereum)

	if u.Address != alice {
		t.Errorf("wrong address: got %s, want %s", u.Address.Hex(), alice.Hex())
	}
	if len(u.Balances) != 0 {
		t.Errorf("expected no balance entries, got %d", len(u.Balances))
	}
	if u.Balance(token.USDC) != 0 {
		t.Errorf("absent balance should read as zero, got %v", u.Balance(token.USDC))
	}
	if !u.HasSufficientBalance(token.USDC, 0) {
		t.Error("zero amount should always be covered")
	}
	if u.HasSufficientBalance(token.USDC, 0.01) {
		t.Error("empty ledger should not cover a positive amount")
	}
}

// TestUserDebitCredit tests ledger mutation
func TestUserDebitCredit(t *testing.T) {
	u := NewUser(alice, token.Ethereum)

	u.Credit(token.USDT, 100.5)
	if u.Balance(token.USDT) != 100.5 {
		t.Fatalf("balance = %v, want 100.5", u.Balance(token.USDT))
	}

	if err := u.Debit(token.USDT, 40.25); err != nil {
		t.Fatalf("debit failed: %v", err)
	}
	if u.Balance(token.USDT) != 60.25 {
		t.Errorf("balance = %v, want 60.25", u.Balance(token.USDT))
	}

	// Overdraw leaves the ledger untouched
	err := u.Debit(token.USDT, 1000)
	if !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}
	if u.Balance(token.USDT) != 60.25 {
		t.Errorf("balance changed after failed debit: %v", u.Balance(token.USDT))
	}

	// Debit of an absent token
	if err := u.Debit(token.DAI, 1); !errors.Is(err, ErrInsufficientBalance) {
		t.Errorf("expected ErrInsufficientBalance for absent token, got %v", err)
	}
	if _, ok := u.Balances[token.DAI]; ok {
		t.Error("failed debit must not create an entry")
	}
}

func TestUserDebitBalanceNotFound(t *testing.T) {
	// A zero-amount debit of an absent token passes the precheck but has no entry
	u := NewUser(alice, token.Ethereum)
	if err := u.Debit(token.BUSD, 0); !errors.Is(err, ErrBalanceNotFound) {
		t.Errorf("expected ErrBalanceNotFound, got %v", err)
	}
}

func TestUserValidate(t *testing.T) {
	u := NewUser(alice, token.Ethereum)
	u.Credit(token.USDC, 5)
	if err := u.Validate(); err != nil {
		t.Fatalf("valid user rejected: %v", err)
	}

	u.Balances[token.USDC] = -1
	if err := u.Validate(); err == nil {
		t.Error("expected error for negative balance")
	}
}

func TestUserStore_PutGetRemove(t *testing.T) {
	s := NewUserStore(token.Ethereum)

	if _, ok := s.Get(alice); ok {
		t.Fatal("empty store returned a user")
	}

	u := NewUser(alice, token.Ethereum)
	u.Credit(token.USDC, 10)
	s.Put(u)

	snap, ok := s.Get(alice)
	if !ok {
		t.Fatal("user not found after Put")
	}
	snap.Credit(token.USDC, 1000)
	if live, _ := s.GetMut(alice); live.Balance(token.USDC) != 10 {
		t.Errorf("snapshot mutation leaked into store: %v", live.Balance(token.USDC))
	}

	// Put overwrites
	replacement := NewUser(alice, token.Ethereum)
	s.Put(replacement)
	if got, _ := s.Get(alice); got.Balance(token.USDC) != 0 {
		t.Errorf("Put did not overwrite: %v", got.Balance(token.USDC))
	}
	if s.Count() != 1 {
		t.Errorf("count = %d, want 1", s.Count())
	}

	s.Remove(alice)
	s.Remove(alice) // no-op
	s.Remove(bob)   // never existed
	if _, ok := s.Get(alice); ok {
		t.Error("user still present after Remove")
	}
	if s.Count() != 0 {
		t.Errorf("count = %d, want 0", s.Count())
	}
}

func TestUserStore_Onboard(t *testing.T) {
	s := NewUserStore(token.Ethereum)

	u, err := s.Onboard(alice, token.Ethereum, map[token.Token]float64{token.USDC: 500, token.DAI: 0})
	if err != nil {
		t.Fatalf("onboard failed: %v", err)
	}
	if u.Balance(token.USDC) != 500 {
		t.Errorf("USDC = %v, want 500", u.Balance(token.USDC))
	}
	if _, ok := u.Balances[token.DAI]; ok {
		t.Error("zero initial balance should not create an entry")
	}

	_, err = s.Onboard(bob, token.Polygon, nil)
	if !errors.Is(err, ErrIncorrectNetwork) {
		t.Fatalf("expected ErrIncorrectNetwork, got %v", err)
	}
	if _, ok := s.Get(bob); ok {
		t.Error("rejected user must not be stored")
	}

	if _, err := s.Onboard(bob, token.Ethereum, map[token.Token]float64{token.USDT: -5}); err == nil {
		t.Error("expected error for negative initial balance")
	}
}

func TestUserStore_OnboardExistingKeepsLedger(t *testing.T) {
	s := NewUserStore(token.Ethereum)
	if _, err := s.Onboard(alice, token.Ethereum, map[token.Token]float64{token.USDT: 5000}); err != nil {
		t.Fatalf("onboard: %v", err)
	}

	_, err := s.Onboard(alice, token.Ethereum, map[token.Token]float64{token.USDT: 1})
	if !errors.Is(err, ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
	u, _ := s.Get(alice)
	if u.Balance(token.USDT) != 5000 {
		t.Errorf("USDT = %v after rejected onboard, want 5000", u.Balance(token.USDT))
	}

	// Put still overwrites
	s.Put(NewUser(alice, token.Ethereum))
	if u, _ := s.Get(alice); u.Balance(token.USDT) != 0 {
		t.Errorf("USDT = %v after Put, want 0", u.Balance(token.USDT))
	}

	// A removed address can be onboarded again
	s.Remove(alice)
	if _, err := s.Onboard(alice, token.Ethereum, map[token.Token]float64{token.DAI: 7}); err != nil {
		t.Fatalf("re-onboard after remove: %v", err)
	}
}

func TestUserStore_WithUser(t *testing.T) {
	s := NewUserStore(token.Ethereum)

	err := s.WithUser(alice, func(*User) error { return nil })
	if !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}

	if _, err := s.Onboard(alice, token.Ethereum, map[token.Token]float64{token.USDT: 100}); err != nil {
		t.Fatalf("onboard: %v", err)
	}

	// Concurrent check-then-debit of 1 each: exactly 100 must succeed
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		success int
	)
	for i := 0; i < 150; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.WithUser(alice, func(u *User) error {
				if !u.HasSufficientBalance(token.USDT, 1) {
					return ErrInsufficientBalance
				}
				return u.Debit(token.USDT, 1)
			})
			if err == nil {
				mu.Lock()
				success++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if success != 100 {
		t.Errorf("successful debits = %d, want 100", success)
	}
	if got, _ := s.Get(alice); got.Balance(token.USDT) != 0 {
		t.Errorf("final balance = %v, want 0", got.Balance(token.USDT))
	}

	s.Remove(alice)
	if err := s.WithUser(alice, func(*User) error { return nil }); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound after Remove, got %v", err)
	}
}

func TestUserStore_ListSorted(t *testing.T) {
	s := NewUserStore(token.Ethereum)
	s.Put(NewUser(bob, token.Ethereum))
	s.Put(NewUser(alice, token.Ethereum))

	users := s.List()
	if len(users) != 2 {
		t.Fatalf("len = %d, want 2", len(users))
	}
	if users[0].Address != alice || users[1].Address != bob {
		t.Errorf("unexpected order: %s, %s", users[0].Address.Hex(), users[1].Address.Hex())
	}
}
