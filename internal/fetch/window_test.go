package fetch

import (
	"math"
	"reflect"
	"testing"
)

func TestWindow(t *testing.T) {
	got, ok, err := Window(100, 2, 105)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatalf("expected a window")
	}
	if want := (BlockRange{From: 100, To: 101}); got != want {
		t.Fatalf("window mismatch: %+v != %+v", got, want)
	}
}

func TestWindowCappedByLimit(t *testing.T) {
	got, ok, err := Window(104, 10, 105)
	if err != nil || !ok {
		t.Fatalf("unexpected result: %v %v", ok, err)
	}
	if want := (BlockRange{From: 104, To: 105}); got != want {
		t.Fatalf("window mismatch: %+v != %+v", got, want)
	}

	got, ok, _ = Window(5, 10, 5)
	if !ok || got != (BlockRange{From: 5, To: 5}) {
		t.Fatalf("single block window mismatch: %+v", got)
	}
}

func TestWindowPastLimit(t *testing.T) {
	if _, ok, err := Window(10, 5, 9); ok || err != nil {
		t.Fatalf("expected no window past limit")
	}
	if _, _, err := Window(1, 0, 10); err == nil {
		t.Fatalf("expected error for zero batch size")
	}
}

func TestWindowNoOverflow(t *testing.T) {
	got, ok, err := Window(math.MaxUint64-1, 10, math.MaxUint64)
	if err != nil || !ok {
		t.Fatalf("unexpected result: %v %v", ok, err)
	}
	if got.To != math.MaxUint64 {
		t.Fatalf("window end mismatch: %d", got.To)
	}
}

func TestBlockRangeBlocks(t *testing.T) {
	got := BlockRange{From: 7, To: 9}.Blocks()
	if want := []uint64{7, 8, 9}; !reflect.DeepEqual(got, want) {
		t.Fatalf("blocks mismatch: %v != %v", got, want)
	}
}
