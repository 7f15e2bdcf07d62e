package condor

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestGridCombinations(t *testing.T) {
	grid := NewGrid().
		Add("lr", 0.1, 0.01).
		Add("batch_size", 16, 32, 64)

	if grid.Len() != 6 {
		t.Fatalf("Len() = %d; want 6", grid.Len())
	}
	combos, err := grid.Combinations()
	if err != nil {
		t.Fatalf("Combinations() error = %v", err)
	}

	var got []string
	for _, a := range combos {
		got = append(got, a.String())
	}
	want := []string{
		"--lr 0.1 --batch_size 16",
		"--lr 0.1 --batch_size 32",
		"--lr 0.1 --batch_size 64",
		"--lr 0.01 --batch_size 16",
		"--lr 0.01 --batch_size 32",
		"--lr 0.01 --batch_size 64",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Combinations() mismatch (-want +got):\n%s", diff)
	}
}

func TestGridAddReplacesInPlace(t *testing.T) {
	grid := NewGrid().Add("a", 1).Add("b", 2).Add("a", 3, 4)
	if diff := cmp.Diff([]string{"a", "b"}, grid.Names()); diff != "" {
		t.Errorf("Names() mismatch (-want +got):\n%s", diff)
	}
	if grid.Len() != 2 {
		t.Errorf("Len() = %d; want 2", grid.Len())
	}
}

func TestGridEmpty(t *testing.T) {
	combos, err := NewGrid().Combinations()
	if err != nil || len(combos) != 0 {
		t.Errorf("empty grid: got %d combinations, err %v", len(combos), err)
	}

	_, err = NewGrid().Add("a", 1).Add("b").Combinations()
	if !errors.Is(err, ErrEmptyGrid) {
		t.Errorf("Combinations() error = %v; want ErrEmptyGrid", err)
	}
}
