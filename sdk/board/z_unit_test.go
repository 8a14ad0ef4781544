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

package board

import (
	"errors"
	"testing"

	"github.com/zintix-labs/popstar/errs"
)

func mustBoard(t *testing.T, n int) *Board {
	t.Helper()
	b, err := New(n)
	if err != nil {
		t.Fatalf("New(%d): %v", n, err)
	}
	return b
}

func TestPlaceGetRemove(t *testing.T) {
	b := mustBoard(t, 3)
	c := Coord{Row: 1, Col: 2}
	if err := b.Place(c, Kind(4)); err != nil {
		t.Fatalf("place: %v", err)
	}
	tile, ok, err := b.Get(c)
	if err != nil || !ok {
		t.Fatalf("expected tile at %v, ok=%v err=%v", c, ok, err)
	}
	if tile.Kind != 4 || tile.Coord != c {
		t.Fatalf("unexpected tile: %+v", tile)
	}
	if err := b.Place(c, Kind(2)); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	if tile, _, _ := b.Get(c); tile.Kind != 2 {
		t.Fatalf("place must overwrite, got kind %d", tile.Kind)
	}
	if err := b.Remove(c); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, ok, _ := b.Get(c); ok {
		t.Fatalf("cell should be empty after remove")
	}
	if err := b.Remove(c); err != nil {
		t.Fatalf("removing an empty cell must be a no-op, got %v", err)
	}
}

func TestOutOfBounds(t *testing.T) {
	b := mustBoard(t, 2)
	bad := []Coord{{-1, 0}, {0, -1}, {2, 0}, {0, 2}}
	for _, c := range bad {
		if err := b.Place(c, 1); !errors.Is(err, ErrOutOfBounds) {
			t.Fatalf("Place(%v) err=%v", c, err)
		}
		if err := b.Remove(c); !errors.Is(err, ErrOutOfBounds) {
			t.Fatalf("Remove(%v) err=%v", c, err)
		}
		if _, _, err := b.Get(c); !errors.Is(err, ErrOutOfBounds) {
			t.Fatalf("Get(%v) err=%v", c, err)
		}
		if err := b.Move(c, Coord{0, 0}); !errors.Is(err, ErrOutOfBounds) {
			t.Fatalf("Move(%v, ok) err=%v", c, err)
		}
		if err := b.Move(Coord{0, 0}, c); !errors.Is(err, ErrOutOfBounds) {
			t.Fatalf("Move(ok, %v) err=%v", c, err)
		}
	}
	e, ok := errs.AsErr(b.Place(Coord{5, 5}, 1))
	if !ok || e.ErrLv != errs.Warn {
		t.Fatalf("out of bounds should be a warn level *errs.E, got %v", e)
	}
}

func TestPlaceNoneRejected(t *testing.T) {
	b := mustBoard(t, 2)
	if err := b.Place(Coord{0, 0}, None); !errors.Is(err, ErrInvalidKind) {
		t.Fatalf("expected ErrInvalidKind, got %v", err)
	}
}

func TestMove(t *testing.T) {
	b := mustBoard(t, 3)
	from, to := Coord{2, 0}, Coord{0, 0}
	_ = b.Place(from, 3)
	_ = b.Place(to, 1)
	if err := b.Move(from, to); err != nil {
		t.Fatalf("move: %v", err)
	}
	if _, ok, _ := b.Get(from); ok {
		t.Fatalf("source must be empty after move")
	}
	tile, ok, _ := b.Get(to)
	if !ok || tile.Kind != 3 || tile.Coord != to {
		t.Fatalf("unexpected destination tile: %+v", tile)
	}
	if err := b.Verify(); err != nil {
		t.Fatalf("verify: %v", err)
	}
}

func TestMoveSourceEmpty(t *testing.T) {
	b := mustBoard(t, 3)
	_ = b.Place(Coord{1, 1}, 2)
	err := b.Move(Coord{0, 0}, Coord{1, 1})
	if !errors.Is(err, ErrSourceEmpty) {
		t.Fatalf("expected ErrSourceEmpty, got %v", err)
	}
	if e, _ := errs.AsErr(err); e.ErrLv != errs.Fatal {
		t.Fatalf("source empty must be fatal")
	}
	if tile, ok, _ := b.Get(Coord{1, 1}); !ok || tile.Kind != 2 {
		t.Fatalf("failed move must not mutate destination")
	}
}

func TestFromKinds(t *testing.T) {
	b, err := FromKinds([][]Kind{{1, 2}, {3, 1}})
	if err != nil {
		t.Fatalf("FromKinds: %v", err)
	}
	if b.Size() != 2 || b.Count() != 4 {
		t.Fatalf("unexpected board size=%d count=%d", b.Size(), b.Count())
	}
	if k := b.KindAt(1, 0); k != 3 {
		t.Fatalf("KindAt(1,0)=%d", k)
	}
	h := b.Histogram()
	if h[1] != 2 || h[2] != 1 || h[3] != 1 {
		t.Fatalf("unexpected histogram %v", h)
	}

	bad := [][][]Kind{
		nil,
		{{1, 2}, {1}},
		{{1, 2}, {0, 1}},
		{{1, 2, 3}, {1, 2, 3}},
	}
	for i, layout := range bad {
		if _, err := FromKinds(layout); !errors.Is(err, ErrInvalidLayout) {
			t.Fatalf("layout %d: expected ErrInvalidLayout, got %v", i, err)
		}
	}
}

func TestColumnEmptyAndClear(t *testing.T) {
	b, _ := FromKinds([][]Kind{{1, 2}, {1, 2}})
	_ = b.Remove(Coord{0, 1})
	_ = b.Remove(Coord{1, 1})
	if !b.ColumnEmpty(1) || b.ColumnEmpty(0) {
		t.Fatalf("unexpected column emptiness")
	}
	if !b.ColumnEmpty(-1) || !b.ColumnEmpty(2) {
		t.Fatalf("out-of-range columns count as empty")
	}
	b.Clear()
	if b.Count() != 0 {
		t.Fatalf("clear left %d tiles", b.Count())
	}
}

func TestCloneIndependent(t *testing.T) {
	b, _ := FromKinds([][]Kind{{1, 2}, {3, 4}})
	cp := b.Clone()
	_ = cp.Remove(Coord{0, 0})
	if _, ok, _ := b.Get(Coord{0, 0}); !ok {
		t.Fatalf("clone shares storage with original")
	}
	k := b.Kinds()
	k[1][1] = 9
	if b.KindAt(1, 1) != 4 {
		t.Fatalf("Kinds must return a snapshot")
	}
}
