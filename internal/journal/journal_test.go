package journal

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/vh1572/alpaca-rebalance/internal/execution"
)

func TestJSONLRecorderAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "orders", "fills.jsonl")
	rec, err := NewJSONLRecorder(path)
	if err != nil {
		t.Fatalf("NewJSONLRecorder returned error: %v", err)
	}

	rec.Record(execution.NewMarketOrder("SPY", execution.Buy, 30))
	rec.Record(execution.NewMarketOrder("TLT", execution.Sell, 5))
	if err := rec.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}

	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("open journal: %v", err)
	}
	defer file.Close()

	var entries []Entry
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var entry Entry
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			t.Fatalf("invalid journal line: %v", err)
		}
		entries = append(entries, entry)
	}
	if len(entries) != 2 {
		t.Fatalf("expected two journal lines, got %d", len(entries))
	}
	if entries[0].Symbol != "SPY" || entries[0].Qty != 30 {
		t.Fatalf("unexpected first entry: %+v", entries[0])
	}
	if entries[1].Side != execution.Sell {
		t.Fatalf("unexpected second entry: %+v", entries[1])
	}
	if entries[0].SubmittedAt.IsZero() {
		t.Fatalf("expected submission timestamp")
	}
}

func TestJSONLRecorderDoubleClose(t *testing.T) {
	rec, err := NewJSONLRecorder(filepath.Join(t.TempDir(), "fills.jsonl"))
	if err != nil {
		t.Fatalf("NewJSONLRecorder returned error: %v", err)
	}
	if err := rec.Close(); err != nil {
		t.Fatalf("first Close returned error: %v", err)
	}
	if err := rec.Close(); err != nil {
		t.Fatalf("second Close returned error: %v", err)
	}
}

func TestLedgerSnapshotAndReset(t *testing.T) {
	ledger := NewLedger(4)
	ledger.Record(execution.NewMarketOrder("QQQ", execution.Buy, 10))

	snap := ledger.Snapshot()
	if len(snap) != 1 || snap[0].Symbol != "QQQ" {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}

	snap[0].Symbol = "MUTATED"
	if ledger.Snapshot()[0].Symbol != "QQQ" {
		t.Fatalf("snapshot must be a copy")
	}

	ledger.Reset()
	if len(ledger.Snapshot()) != 0 {
		t.Fatalf("expected empty ledger after reset")
	}
}
