package indexdb

import (
	"path/filepath"
	"testing"

	"outpost.sim/internal/sim/colony"
	"outpost.sim/internal/sim/tuning"
)

func TestSQLiteIndex_WriteAndQuery(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.db")

	s, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := s.UpsertRunMeta("colony_1", 42, tuning.Tuning{}.Defaulted()); err != nil {
		t.Fatalf("upsert meta: %v", err)
	}
	for i := 0; i < 3; i++ {
		_ = s.WriteTick(colony.TickLogEntry{Tick: uint64(i), Pending: i, Digest: "d"})
	}
	_ = s.WriteJob(colony.JobRecord{ID: 1, Kind: "MINE", Status: "COMPLETED", X: 3, Y: 4, DoneAt: 2})
	_ = s.WriteJob(colony.JobRecord{ID: 2, Kind: "MINE", Status: "COMPLETED", DoneAt: 2})
	_ = s.WriteJob(colony.JobRecord{ID: 3, Kind: "HUNT", Status: "CANCELLED", DoneAt: 2})
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	// Writes after close are silently dropped, never a panic.
	_ = s.WriteTick(colony.TickLogEntry{Tick: 99})
	_ = s.Close()

	// Reopen and read back what the writer committed.
	s, err = OpenSQLite(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()

	tick, digest, ok, err := s.LatestTick()
	if err != nil || !ok {
		t.Fatalf("latest tick: ok=%v err=%v", ok, err)
	}
	if tick != 2 || digest != "d" {
		t.Fatalf("latest = %d %q", tick, digest)
	}
	if d, err := s.TickDigest(1); err != nil || d != "d" {
		t.Fatalf("tick digest = %q err=%v", d, err)
	}
	if d, err := s.TickDigest(77); err != nil || d != "" {
		t.Fatalf("missing tick digest = %q err=%v", d, err)
	}

	completed, cancelled, err := s.JobCountsByKind()
	if err != nil {
		t.Fatalf("job counts: %v", err)
	}
	if completed["MINE"] != 2 || cancelled["HUNT"] != 1 {
		t.Fatalf("counts = %v / %v", completed, cancelled)
	}
}

func TestSQLiteIndex_EmptyAndInvalid(t *testing.T) {
	if _, err := OpenSQLite(""); err == nil {
		t.Fatal("empty path accepted")
	}

	s, err := OpenSQLite(filepath.Join(t.TempDir(), "index.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()
	if _, _, ok, err := s.LatestTick(); ok || err != nil {
		t.Fatalf("empty index: ok=%v err=%v", ok, err)
	}
}
