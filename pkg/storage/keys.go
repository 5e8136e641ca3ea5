package storage

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// Journal key schema:
//   swap:<address>:<timestamp>:<seq>:<id> → swap.Record (JSON)
//
// Timestamp and seq are zero-padded (20 digits) so a prefix scan per address is
// chronological. seq is the journal's write counter and orders records that
// share a millisecond.

const prefixSwap = "swap:"

// swapKey returns the key for a swap record
// Format: "swap:{address}:{timestamp}:{seq}:{id}"
func swapKey(addr common.Address, timestamp int64, seq uint64, id string) []byte {
	return []byte(fmt.Sprintf("%s%s:%020d:%020d:%s", prefixSwap, addr.Hex(), timestamp, seq, id))
}

// swapPrefix returns the prefix for all swaps of an address
// Format: "swap:{address}:"
func swapPrefix(addr common.Address) []byte {
	return []byte(fmt.Sprintf("%s%s:", prefixSwap, addr.Hex()))
}

// keyUpperBound returns the exclusive upper bound for a prefix scan
func keyUpperBound(prefix []byte) []byte {
	bound := make([]byte, len(prefix))
	copy(bound, prefix)
	bound[len(bound)-1]++
	return bound
}
