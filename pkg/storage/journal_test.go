package storage

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"

	"github.com/uhyunpark/swapchecker/pkg/app/core/swap"
	"github.com/uhyunpark/swapchecker/pkg/app/core/token"
)

var (
	alice = common.HexToAddress("0xAA00000000000000000000000000000000000000")
	bob   = common.HexToAddress("0xBB00000000000000000000000000000000000000")
)

func record(addr common.Address, ts int64, amount float64) swap.Record {
	return swap.Record{
		ID:        uuid.New(),
		Address:   addr,
		From:      token.USDT,
		To:        token.USDC,
		Amount:    amount,
		Received:  amount * 1.002,
		Source:    "Uniswap",
		Slippage:  0.005,
		Timestamp: ts,
	}
}

func TestJournal_InMemoryRecent(t *testing.T) {
	j, err := OpenJournal("")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer j.Close()

	for i, ts := range []int64{1000, 3000, 2000} {
		if err := j.RecordSwap(record(alice, ts, float64(i+1))); err != nil {
			t.Fatalf("record %d: %v", i, err)
		}
	}
	if err := j.RecordSwap(record(bob, 5000, 99)); err != nil {
		t.Fatalf("record bob: %v", err)
	}

	recs, err := j.RecentSwaps(alice, 2)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("len = %d, want 2", len(recs))
	}
	if recs[0].Timestamp != 3000 || recs[1].Timestamp != 2000 {
		t.Errorf("not newest-first: %d, %d", recs[0].Timestamp, recs[1].Timestamp)
	}
	for _, r := range recs {
		if r.Address != alice {
			t.Errorf("foreign record returned: %s", r.Address.Hex())
		}
		if r.From != token.USDT || r.To != token.USDC {
			t.Errorf("tokens not decoded: %s->%s", r.From, r.To)
		}
	}

	all, _ := j.RecentSwaps(alice, 0)
	if len(all) != 3 {
		t.Errorf("unlimited len = %d, want 3", len(all))
	}

	none, _ := j.RecentSwaps(common.HexToAddress("0x01"), 10)
	if len(none) != 0 {
		t.Errorf("expected empty history, got %d", len(none))
	}
}

func TestJournal_OnDiskReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal")

	j, err := OpenJournal(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	want := record(alice, 42, 7)
	if err := j.RecordSwap(want); err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := j.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	j, err = OpenJournal(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer j.Close()

	recs, err := j.RecentSwaps(alice, 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(recs) != 1 || recs[0].ID != want.ID {
		t.Errorf("record not recovered: %+v", recs)
	}
}

func TestJournal_SameMillisecondNewestFirst(t *testing.T) {
	j, err := OpenJournal("")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer j.Close()

	// uuid order is random; write order must decide
	var written []swap.Record
	for i := 0; i < 20; i++ {
		rec := record(alice, 1000, float64(i+1))
		if err := j.RecordSwap(rec); err != nil {
			t.Fatalf("record %d: %v", i, err)
		}
		written = append(written, rec)
	}

	recs, err := j.RecentSwaps(alice, 0)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(recs) != len(written) {
		t.Fatalf("len = %d, want %d", len(recs), len(written))
	}
	for i, r := range recs {
		if want := written[len(written)-1-i]; r.ID != want.ID {
			t.Fatalf("position %d: amount %v, want %v", i, r.Amount, want.Amount)
		}
	}
}

func TestJournal_UseAfterClose(t *testing.T) {
	j, err := OpenJournal("")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := j.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := j.Close(); err != nil {
		t.Errorf("second close: %v", err)
	}

	if err := j.RecordSwap(record(alice, 1, 1)); !errors.Is(err, ErrJournalClosed) {
		t.Errorf("RecordSwap after close = %v, want ErrJournalClosed", err)
	}
	if _, err := j.RecentSwaps(alice, 1); !errors.Is(err, ErrJournalClosed) {
		t.Errorf("RecentSwaps after close = %v, want ErrJournalClosed", err)
	}
}
