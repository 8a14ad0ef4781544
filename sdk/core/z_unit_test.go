// Copyright 2025 Zintix Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package core

import (
	"slices"
	"testing"
)

func TestCoreDeterminism(t *testing.T) {
	c1 := New(Default().New(7))
	c2 := New(Default().New(7))
	for i := 0; i < 5; i++ {
		if c1.Uint64() != c2.Uint64() {
			t.Fatalf("Uint64 mismatch at %d", i)
		}
	}
	if c1.IntN(10) != c2.IntN(10) {
		t.Fatalf("IntN mismatch")
	}
	if c1.UintN(10) != c2.UintN(10) {
		t.Fatalf("UintN mismatch")
	}
}

func TestCorePickAndShuffle(t *testing.T) {
	c := New(Default().New(9))
	if got := c.Pick(nil); got != -1 {
		t.Fatalf("expected -1 for empty pick, got %d", got)
	}

	src := []int{1, 2, 3, 4}
	c.ShuffleInts(src)
	got := slices.Clone(src)
	slices.Sort(got)
	if !slices.Equal([]int{1, 2, 3, 4}, got) {
		t.Fatalf("shuffle changed elements: %v", src)
	}
}

func TestSnapshotRestore(t *testing.T) {
	c := New(Default().New(3))
	snap, err := c.Snapshot()
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	first := c.Uint64()
	if err := c.Restore(snap); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if again := c.Uint64(); again != first {
		t.Fatalf("restore did not rewind: %d != %d", again, first)
	}
}

func TestBounds(t *testing.T) {
	c := New(Default().New(5))
	if c.IntN(0) != -1 || c.UintN(0) != 0 {
		t.Fatalf("zero bound contract broken")
	}
	for i := 0; i < 1000; i++ {
		if v := c.IntN(7); v < 0 || v >= 7 {
			t.Fatalf("IntN out of range: %d", v)
		}
		if f := c.Float64(); f < 0 || f >= 1 {
			t.Fatalf("Float64 out of range: %v", f)
		}
	}
	if c.Chance(0) || !c.Chance(1) {
		t.Fatalf("Chance edge cases broken")
	}
}

func TestNewSeedNonNegative(t *testing.T) {
	s, err := NewSeed()
	if err != nil {
		t.Fatalf("NewSeed: %v", err)
	}
	if s < 0 {
		t.Fatalf("seed must be non-negative, got %d", s)
	}
}
