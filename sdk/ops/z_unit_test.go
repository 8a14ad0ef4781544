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

package ops

import (
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/zintix-labs/popstar/sdk/board"
	"github.com/zintix-labs/popstar/sdk/buf"
	"github.com/zintix-labs/popstar/sdk/chunk"
)

func parse(t *testing.T, rows ...string) *board.Board {
	t.Helper()
	b, err := board.New(len(rows))
	require.NoError(t, err)
	for r, line := range rows {
		for c, ch := range line {
			if ch != '.' {
				require.NoError(t, b.Place(board.Coord{Row: r, Col: c}, board.Kind(ch-'A'+1)))
			}
		}
	}
	return b
}

func render(b *board.Board) []string {
	out := make([]string, b.Size())
	for r := range out {
		line := make([]byte, b.Size())
		for c := range line {
			if k := b.KindAt(r, c); k == board.None {
				line[c] = '.'
			} else {
				line[c] = byte('A' + k - 1)
			}
		}
		out[r] = string(line)
	}
	return out
}

func mv(fr, fc, tr, tc int) buf.Move {
	return buf.Move{From: board.Coord{Row: fr, Col: fc}, To: board.Coord{Row: tr, Col: tc}}
}

func TestClear(t *testing.T) {
	b := parse(t, "AB", "CD")
	require.NoError(t, Clear(b, []board.Coord{{Row: 0, Col: 0}, {Row: 1, Col: 1}}))
	require.Equal(t, []string{".B", "C."}, render(b))
}

func TestClearValidatesFirst(t *testing.T) {
	b := parse(t, "AB", "CD")
	err := Clear(b, []board.Coord{{Row: 0, Col: 0}, {Row: 5, Col: 0}})
	require.True(t, errors.Is(err, board.ErrOutOfBounds))
	require.Equal(t, 4, b.Count(), "no cell may be removed when any coord is invalid")
}

func TestCompactSettledIsNoop(t *testing.T) {
	b := parse(t,
		"ABC",
		"AB.",
		"A..",
	)
	moves, err := NewCompactor(b, GravityLow).Compact()
	require.NoError(t, err)
	require.Empty(t, moves)
}

func TestCompactTwoByTwo(t *testing.T) {
	b := parse(t,
		"AA",
		"BA",
	)
	g, err := chunk.NewFinder(b).FindGroup(board.Coord{Row: 0, Col: 0})
	require.NoError(t, err)
	require.Equal(t, 3, g.Size())
	require.NoError(t, Clear(b, g.Coords()))

	moves, err := NewCompactor(b, GravityLow).Compact()
	require.NoError(t, err)
	require.Equal(t, []buf.Move{mv(1, 0, 0, 0)}, moves)
	require.Equal(t, []string{"B.", ".."}, render(b))
	require.False(t, chunk.NewFinder(b).HasAnyEliminableGroup())
}

func TestCompactSingleEmptyColumn(t *testing.T) {
	b := parse(t,
		"A.B",
		"A.C",
		"..B",
	)
	moves, err := NewCompactor(b, GravityLow).Compact()
	require.NoError(t, err)
	require.Equal(t, []buf.Move{mv(0, 2, 0, 1), mv(1, 2, 1, 1), mv(2, 2, 2, 1)}, moves)
	require.Equal(t, []string{"AB.", "AC.", ".B."}, render(b))
}

func TestCompactFallThenCollapse(t *testing.T) {
	b := parse(t,
		"...",
		"A.B",
		".C.",
	)
	moves, err := NewCompactor(b, GravityLow).Compact()
	require.NoError(t, err)
	require.Equal(t, []buf.Move{
		mv(1, 0, 0, 0),
		mv(2, 1, 0, 1),
		mv(1, 2, 0, 2),
	}, moves)
	require.Equal(t, []string{"ACB", "...", "..."}, render(b))
}

func TestCompactSeveralEmptyRuns(t *testing.T) {
	b := parse(t,
		"..A.B",
		".....",
		".....",
		".....",
		".....",
	)
	moves, err := NewCompactor(b, GravityLow).Compact()
	require.NoError(t, err)
	require.Equal(t, []string{"AB...", ".....", ".....", ".....", "....."}, render(b))
	// 左移 2 欄後 col 1 變成空欄，同一輪要再收攏一次；跳過 k 欄的掃法會留下 "A.B.."
	require.Equal(t, []buf.Move{
		mv(0, 2, 0, 0),
		mv(0, 4, 0, 2),
		mv(0, 2, 0, 1),
	}, moves)
}

func TestCompactGravityHigh(t *testing.T) {
	b := parse(t,
		"A.",
		"..",
	)
	moves, err := NewCompactor(b, GravityHigh).Compact()
	require.NoError(t, err)
	require.Equal(t, []buf.Move{mv(0, 0, 1, 0)}, moves)
	require.Equal(t, []string{"..", "A."}, render(b))
}

func TestFallOnly(t *testing.T) {
	b := parse(t,
		"...",
		"..A",
		"...",
	)
	moves, err := NewCompactor(b, GravityLow).Fall()
	require.NoError(t, err)
	require.Equal(t, []buf.Move{mv(1, 2, 0, 2)}, moves)
	require.Equal(t, []string{"..A", "...", "..."}, render(b))
}

// replay 將位移依序套用在 kinds 上，結果需與壓縮後的盤面一致。
func replay(kinds [][]board.Kind, moves []buf.Move) [][]board.Kind {
	for _, m := range moves {
		kinds[m.To.Row][m.To.Col] = kinds[m.From.Row][m.From.Col]
		kinds[m.From.Row][m.From.Col] = board.None
	}
	return kinds
}

func TestCompactProperties(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	for round := 0; round < 200; round++ {
		n := 1 + rng.IntN(9)
		grav := Gravity(rng.IntN(2))
		kinds := make([][]board.Kind, n)
		for r := range kinds {
			kinds[r] = make([]board.Kind, n)
			for c := range kinds[r] {
				kinds[r][c] = board.Kind(1 + rng.IntN(4))
			}
		}
		b, err := board.FromKinds(kinds)
		require.NoError(t, err)
		cp := NewCompactor(b, grav)
		f := chunk.NewFinder(b)

		for f.HasAnyEliminableGroup() {
			groups := f.Groups()
			var pick []board.Coord
			for _, g := range groups {
				if g.Eliminable() {
					pick = g.Coords()
					if rng.IntN(2) == 0 {
						break
					}
				}
			}
			require.NoError(t, Clear(b, pick))
			before := b.Histogram()
			snap := b.Kinds()

			moves, err := cp.Compact()
			require.NoError(t, err)
			require.NoError(t, b.Verify())
			require.Equal(t, before, b.Histogram(), "kind multiset must be conserved")
			require.Equal(t, b.Kinds(), replay(snap, moves), "moves must describe the compaction")
			assertSettled(t, b, grav)
			assertPacked(t, b)

			again, err := cp.Compact()
			require.NoError(t, err)
			require.Empty(t, again, "compacting a settled board must be a no-op")
		}
	}
}

func assertSettled(t *testing.T, b *board.Board, g Gravity) {
	t.Helper()
	n := b.Size()
	for c := 0; c < n; c++ {
		gap := false
		for d := 0; d < n; d++ {
			r := d
			if g == GravityHigh {
				r = n - 1 - d
			}
			if b.KindAt(r, c) == board.None {
				gap = true
			} else {
				require.False(t, gap, "column %d has a tile above an empty cell", c)
			}
		}
	}
}

func assertPacked(t *testing.T, b *board.Board) {
	t.Helper()
	emptySeen := false
	for c := 0; c < b.Size(); c++ {
		if b.ColumnEmpty(c) {
			emptySeen = true
		} else {
			require.False(t, emptySeen, "non-empty column %d right of an empty column", c)
		}
	}
}
