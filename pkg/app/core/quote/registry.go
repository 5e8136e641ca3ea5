package quote

import (
	"fmt"
	"sync"
)

// BookRegistry keeps liquidity sources in registration order.
// The order is significant: it is the aggregator's tie-break order.
type BookRegistry struct {
	mu      sync.RWMutex
	quoters []Quoter
	bySrc   map[string]int // source -> index into quoters
}

// NewBookRegistry creates an empty registry
func NewBookRegistry() *BookRegistry {
	return &BookRegistry{
		bySrc: make(map[string]int),
	}
}

// Register appends a source
// Returns error if a source with the same name already exists
func (r *BookRegistry) Register(q Quoter) error {
	if q == nil {
		return fmt.Errorf("cannot register nil quote source")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.bySrc[q.Source()]; exists {
		return fmt.Errorf("quote source %s already registered", q.Source())
	}

	r.bySrc[q.Source()] = len(r.quoters)
	r.quoters = append(r.quoters, q)
	return nil
}

// Get retrieves a source by name
func (r *BookRegistry) Get(source string) (Quoter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	i, exists := r.bySrc[source]
	if !exists {
		return nil, fmt.Errorf("quote source %s not found", source)
	}
	return r.quoters[i], nil
}

// Quoters returns a copy of all sources in registration order
func (r *BookRegistry) Quoters() []Quoter {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Quoter, len(r.quoters))
	copy(out, r.quoters)
	return out
}

// Books returns the registered sources that are concrete QuoteBooks, in order
func (r *BookRegistry) Books() []*QuoteBook {
	r.mu.RLock()
	defer r.mu.RUnlock()

	books := make([]*QuoteBook, 0, len(r.quoters))
	for _, q := range r.quoters {
		if b, ok := q.(*QuoteBook); ok {
			books = append(books, b)
		}
	}
	return books
}

func (r *BookRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.quoters)
}
