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
	"slices"

	"github.com/zintix-labs/popstar/errs"
	"github.com/zintix-labs/popstar/sdk/board"
	"github.com/zyedidia/generic/mapset"
)

var ErrEmptySeed = errs.NewCode(errs.Warn, "empty_seed", "seed cell is empty")

// MinEliminable 可消除的最小群組大小。
const MinEliminable = 2

// Group 同種類、四向相連的最大方塊集合。
type Group struct {
	kind   board.Kind
	seed   board.Coord
	coords []board.Coord
	set    mapset.Set[board.Coord]
}

func (g Group) Kind() board.Kind  { return g.kind }
func (g Group) Seed() board.Coord { return g.seed }
func (g Group) Size() int         { return len(g.coords) }
func (g Group) Eliminable() bool  { return len(g.coords) >= MinEliminable }

// Contains 座標是否屬於此群組。
func (g Group) Contains(c board.Coord) bool {
	if g.set.Size() == 0 {
		return false
	}
	return g.set.Has(c)
}

// Coords 以 row-major 排序的座標 (回傳副本)。
func (g Group) Coords() []board.Coord {
	return slices.Clone(g.coords)
}

// Finder 在盤面上尋找相連群組。
// 內部緩衝可重用；同一個 Finder 不可併發使用。
type Finder struct {
	b *board.Board

	stack []int
	hits  []int
	// mark 與 epoch 搭配，每次搜尋不用清零
	mark  []uint32
	epoch uint32
}

func NewFinder(b *board.Board) *Finder {
	f := &Finder{b: b}
	f.resetSizes()
	return f
}

// resetSizes 只調整容量，不清內容
func (f *Finder) resetSizes() {
	n := f.b.Size() * f.b.Size()
	if cap(f.mark) < n {
		f.mark = make([]uint32, n)
		f.epoch = 0
	} else {
		f.mark = f.mark[:n]
	}
	if cap(f.stack) < n {
		f.stack = make([]int, 0, n)
	}
	if cap(f.hits) < n {
		f.hits = make([]int, 0, n)
	}
}

func (f *Finder) nextEpoch() uint32 {
	f.epoch++
	if f.epoch == 0 { // 溢位才清一次
		clear(f.mark)
		f.epoch = 1
	}
	return f.epoch
}

// FindGroup 自 seed 出發找出完整的同色相連群組 (必含 seed)。
func (f *Finder) FindGroup(seed board.Coord) (Group, error) {
	t, ok, err := f.b.Get(seed)
	if err != nil {
		return Group{}, err
	}
	if !ok {
		return Group{}, ErrEmptySeed.Withf("seed=%v", seed)
	}
	f.resetSizes()
	ep := f.nextEpoch()
	f.collect(seed.Row*f.b.Size()+seed.Col, t.Kind, ep)
	return f.build(t.Kind, seed), nil
}

// collect 以顯式堆疊走訪，結果放在 f.hits。
func (f *Finder) collect(start int, kind board.Kind, ep uint32) {
	n := f.b.Size()
	f.stack = f.stack[:0]
	f.hits = f.hits[:0]

	f.mark[start] = ep
	f.stack = append(f.stack, start)
	for len(f.stack) > 0 {
		curr := f.stack[len(f.stack)-1]
		f.stack = f.stack[:len(f.stack)-1]
		f.hits = append(f.hits, curr)

		r, c := curr/n, curr%n
		push := func(next, nr, nc int) {
			if f.mark[next] == ep || f.b.KindAt(nr, nc) != kind {
				return
			}
			f.mark[next] = ep
			f.stack = append(f.stack, next)
		}
		// 上、右、下、左
		if r > 0 {
			push(curr-n, r-1, c)
		}
		if c+1 < n {
			push(curr+1, r, c+1)
		}
		if r+1 < n {
			push(curr+n, r+1, c)
		}
		if c > 0 {
			push(curr-1, r, c-1)
		}
	}
}

func (f *Finder) build(kind board.Kind, seed board.Coord) Group {
	n := f.b.Size()
	slices.Sort(f.hits)
	g := Group{
		kind:   kind,
		seed:   seed,
		coords: make([]board.Coord, 0, len(f.hits)),
		set:    mapset.New[board.Coord](),
	}
	for _, i := range f.hits {
		c := board.Coord{Row: i / n, Col: i % n}
		g.coords = append(g.coords, c)
		g.set.Put(c)
	}
	return g
}

// HasAnyEliminableGroup 盤面上是否存在任一對相鄰同色方塊。
func (f *Finder) HasAnyEliminableGroup() bool {
	n := f.b.Size()
	for r := 0; r < n; r++ {
		for c := 0; c < n; c++ {
			k := f.b.KindAt(r, c)
			if k == board.None {
				continue
			}
			// 上、右、下、左
			if r > 0 && f.b.KindAt(r-1, c) == k {
				return true
			}
			if c+1 < n && f.b.KindAt(r, c+1) == k {
				return true
			}
			if r+1 < n && f.b.KindAt(r+1, c) == k {
				return true
			}
			if c > 0 && f.b.KindAt(r, c-1) == k {
				return true
			}
		}
	}
	return false
}

// Groups 列出盤面上所有最大群組，順序依各群組最小座標的 row-major 排序。
func (f *Finder) Groups() []Group {
	f.resetSizes()
	n := f.b.Size()
	ep := f.nextEpoch()
	out := make([]Group, 0)
	for i := 0; i < n*n; i++ {
		if f.mark[i] == ep {
			continue
		}
		k := f.b.KindAt(i/n, i%n)
		if k == board.None {
			continue
		}
		f.collect(i, k, ep)
		out = append(out, f.build(k, board.Coord{Row: i / n, Col: i % n}))
	}
	return out
}
