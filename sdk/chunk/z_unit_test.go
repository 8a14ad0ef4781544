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

package chunk

import (
	"errors"
	"math/rand/v2"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zintix-labs/popstar/sdk/board"
)

// parse 以字母表示種類 (A=1, B=2 ...)，'.' 為空格。
func parse(t *testing.T, rows ...string) *board.Board {
	t.Helper()
	b, err := board.New(len(rows))
	require.NoError(t, err)
	for r, line := range rows {
		require.Len(t, line, len(rows))
		for c, ch := range line {
			if ch == '.' {
				continue
			}
			require.NoError(t, b.Place(board.Coord{Row: r, Col: c}, board.Kind(ch-'A'+1)))
		}
	}
	return b
}

func co(r, c int) board.Coord { return board.Coord{Row: r, Col: c} }

func TestFindGroupMaximal(t *testing.T) {
	b := parse(t,
		"AAB",
		"BAB",
		"AAA",
	)
	g, err := NewFinder(b).FindGroup(co(0, 0))
	require.NoError(t, err)
	assert.Equal(t, board.Kind(1), g.Kind())
	assert.Equal(t, []board.Coord{co(0, 0), co(0, 1), co(1, 1), co(2, 0), co(2, 1), co(2, 2)}, g.Coords())
	assert.True(t, g.Contains(co(2, 2)))
	assert.False(t, g.Contains(co(0, 2)))
	assert.True(t, g.Eliminable())
	assert.Equal(t, co(0, 0), g.Seed())
}

func TestFindGroupSameResultFromAnyMember(t *testing.T) {
	b := parse(t,
		"ABBA",
		"ABAA",
		"AAAB",
		"BBAB",
	)
	f := NewFinder(b)
	ref, err := f.FindGroup(co(0, 0))
	require.NoError(t, err)
	for _, c := range ref.Coords() {
		g, err := f.FindGroup(c)
		require.NoError(t, err)
		assert.Equal(t, ref.Coords(), g.Coords(), "seed %v", c)
	}
}

func TestFindGroupSingleton(t *testing.T) {
	b := parse(t,
		"AB",
		"BA",
	)
	g, err := NewFinder(b).FindGroup(co(0, 1))
	require.NoError(t, err)
	assert.Equal(t, 1, g.Size())
	assert.False(t, g.Eliminable())
}

func TestFindGroupErrors(t *testing.T) {
	b := parse(t,
		"A.",
		"AA",
	)
	f := NewFinder(b)
	_, err := f.FindGroup(co(0, 1))
	assert.True(t, errors.Is(err, ErrEmptySeed))
	_, err = f.FindGroup(co(2, 0))
	assert.True(t, errors.Is(err, board.ErrOutOfBounds))
}

func TestFindGroupDoesNotCrossEmptyCells(t *testing.T) {
	b := parse(t,
		"A.A",
		"...",
		"A.A",
	)
	g, err := NewFinder(b).FindGroup(co(0, 0))
	require.NoError(t, err)
	assert.Equal(t, 1, g.Size())
}

func TestHasAnyEliminableGroup(t *testing.T) {
	assert.True(t, NewFinder(parse(t, "AB", "CB")).HasAnyEliminableGroup())
	assert.False(t, NewFinder(parse(t, "AB", "BA")).HasAnyEliminableGroup())
	assert.False(t, NewFinder(parse(t, "A.", "..")).HasAnyEliminableGroup())
	assert.False(t, NewFinder(parse(t, "..", "..")).HasAnyEliminableGroup())
}

func TestGroupsPartitionBoard(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	for round := 0; round < 50; round++ {
		n := 1 + rng.IntN(8)
		b, _ := board.New(n)
		for r := 0; r < n; r++ {
			for c := 0; c < n; c++ {
				if rng.IntN(5) == 0 {
					continue
				}
				_ = b.Place(co(r, c), board.Kind(1+rng.IntN(3)))
			}
		}
		f := NewFinder(b)
		seen := map[board.Coord]bool{}
		anyEliminable := false
		for _, g := range f.Groups() {
			for _, c := range g.Coords() {
				require.False(t, seen[c], "coord %v in two groups", c)
				seen[c] = true
				tile, ok, _ := b.Get(c)
				require.True(t, ok)
				require.Equal(t, g.Kind(), tile.Kind)
			}
			again, err := f.FindGroup(g.Seed())
			require.NoError(t, err)
			require.Equal(t, g.Coords(), again.Coords())
			anyEliminable = anyEliminable || g.Eliminable()
		}
		require.Equal(t, b.Count(), len(seen))
		require.Equal(t, anyEliminable, f.HasAnyEliminableGroup())
	}
}

// bfsComponent 直接在種類矩陣上做 BFS，與 Finder 無共用程式碼。
func bfsComponent(kinds [][]board.Kind, seed board.Coord) []board.Coord {
	n := len(kinds)
	k := kinds[seed.Row][seed.Col]
	seen := make([][]bool, n)
	for i := range seen {
		seen[i] = make([]bool, n)
	}
	seen[seed.Row][seed.Col] = true
	queue := []board.Coord{seed}
	out := []board.Coord{}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		out = append(out, cur)
		for _, d := range [4][2]int{{-1, 0}, {1, 0}, {0, -1}, {0, 1}} {
			r, c := cur.Row+d[0], cur.Col+d[1]
			if r < 0 || r >= n || c < 0 || c >= n || seen[r][c] || kinds[r][c] != k {
				continue
			}
			seen[r][c] = true
			queue = append(queue, board.Coord{Row: r, Col: c})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Row != out[j].Row {
			return out[i].Row < out[j].Row
		}
		return out[i].Col < out[j].Col
	})
	return out
}

func TestFindGroupMatchesPlainBFS(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	for round := 0; round < 300; round++ {
		n := 1 + rng.IntN(10)
		kinds := make([][]board.Kind, n)
		for r := range kinds {
			kinds[r] = make([]board.Kind, n)
			for c := range kinds[r] {
				if rng.IntN(6) > 0 {
					kinds[r][c] = board.Kind(1 + rng.IntN(4))
				}
			}
		}
		b, err := board.New(n)
		require.NoError(t, err)
		for r := range kinds {
			for c, k := range kinds[r] {
				if k != board.None {
					require.NoError(t, b.Place(co(r, c), k))
				}
			}
		}
		f := NewFinder(b)
		pair := false
		for r := 0; r < n; r++ {
			for c := 0; c < n; c++ {
				if kinds[r][c] == board.None {
					continue
				}
				want := bfsComponent(kinds, co(r, c))
				g, err := f.FindGroup(co(r, c))
				require.NoError(t, err)
				require.Equal(t, want, g.Coords(), "n=%d seed %v", n, co(r, c))
				pair = pair || len(want) >= 2
			}
		}
		require.Equal(t, pair, f.HasAnyEliminableGroup(), "n=%d", n)
	}
}
