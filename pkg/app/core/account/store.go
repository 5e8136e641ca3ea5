package account

import (
	"bytes"
	"fmt"
	"sort"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/uhyunpark/swapchecker/pkg/app/core/token"
)

// UserStore keeps every onboarded user for the session, keyed by wallet address.
// The map is guarded by an RWMutex; WithUser adds a per-user lock so a
// check-then-debit sequence cannot interleave with another swap of the same user.
type UserStore struct {
	mu      sync.RWMutex
	users   map[common.Address]*User
	locks   map[common.Address]*sync.Mutex
	network token.Network // the one network accepted at onboarding
}

// NewUserStore creates an empty store accepting users on the given network
func NewUserStore(supported token.Network) *UserStore {
	return &UserStore{
		users:   make(map[common.Address]*User),
		locks:   make(map[common.Address]*sync.Mutex),
		network: supported,
	}
}

// SupportedNetwork returns the network accepted at onboarding
func (s *UserStore) SupportedNetwork() token.Network {
	return s.network
}

// Get returns a snapshot copy of a user
func (s *UserStore) Get(addr common.Address) (*User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[addr]
	if !ok {
		return nil, false
	}
	return u.Clone(), true
}

// GetMut returns the live user; callers mutating it concurrently must use WithUser
func (s *UserStore) GetMut(addr common.Address) (*User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[addr]
	return u, ok
}

// Put inserts or overwrites the user with the same address
func (s *UserStore) Put(u *User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.putLocked(u)
}

// putLocked stores u; caller holds s.mu
func (s *UserStore) putLocked(u *User) {
	if u.Balances == nil {
		u.Balances = make(map[token.Token]float64)
	}
	s.users[u.Address] = u
	if _, ok := s.locks[u.Address]; !ok {
		s.locks[u.Address] = &sync.Mutex{}
	}
}

// Remove deletes a user; no-op if absent
func (s *UserStore) Remove(addr common.Address) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.users, addr)
}

// Onboard validates the network and stores a new user with initial balances.
// An address that is already stored is rejected with ErrUserExists; its ledger is untouched.
func (s *UserStore) Onboard(addr common.Address, network token.Network, balances map[token.Token]float64) (*User, error) {
	if network != s.network {
		return nil, fmt.Errorf("%w: %s (supported: %s)", ErrIncorrectNetwork, network, s.network)
	}

	u := NewUser(addr, network)
	for t, bal := range balances {
		if bal == 0 {
			continue
		}
		u.Credit(t, bal)
	}
	if err := u.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.users[addr]; exists {
		return nil, fmt.Errorf("%w: %s", ErrUserExists, addr.Hex())
	}
	s.putLocked(u)
	return u.Clone(), nil
}

// WithUser runs fn on the live user while holding that user's lock
func (s *UserStore) WithUser(addr common.Address, fn func(u *User) error) error {
	s.mu.RLock()
	lock, ok := s.locks[addr]
	s.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUserNotFound, addr.Hex())
	}

	lock.Lock()
	defer lock.Unlock()

	// Re-resolve under the user lock: the entry may have been removed or replaced
	u, ok := s.GetMut(addr)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUserNotFound, addr.Hex())
	}
	return fn(u)
}

// List returns snapshots of all users sorted by address
func (s *UserStore) List() []*User {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]*User, 0, len(s.users))
	for _, u := range s.users {
		users = append(users, u.Clone())
	}
	sort.Slice(users, func(i, j int) bool {
		return bytes.Compare(users[i].Address[:], users[j].Address[:]) < 0
	})
	return users
}

// Count returns the number of users
func (s *UserStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users)
}
