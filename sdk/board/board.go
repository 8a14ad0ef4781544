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
	"fmt"

	"github.com/zintix-labs/popstar/errs"
)

var (
	ErrOutOfBounds   = errs.NewCode(errs.Warn, "out_of_bounds", "coordinate out of bounds")
	ErrSourceEmpty   = errs.NewCode(errs.Fatal, "source_empty", "move source cell is empty")
	ErrInvalidKind   = errs.NewCode(errs.Warn, "invalid_kind", "tile kind must not be None")
	ErrInvalidLayout = errs.NewCode(errs.Warn, "invalid_layout", "layout must be a fully populated square grid")
)

// Kind 方塊種類，只做相等比較。0 (None) 保留給空格。
type Kind uint8

const None Kind = 0

// Coord 盤面座標，Row/Col 皆為 [0,N)。
type Coord struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

func (c Coord) String() string {
	return fmt.Sprintf("(%d,%d)", c.Row, c.Col)
}

// Tile 為盤面上的一顆方塊，Coord 永遠等於所在格。
type Tile struct {
	Kind  Kind
	Coord Coord
}

// Board N×N 盤面，以一維陣列存放 (idx = row*N + col)。
// Board 本身不加鎖，擁有者負責同步。
type Board struct {
	size  int
	cells []Tile
}

// New 建立空盤面，size 需 >= 1。
func New(size int) (*Board, error) {
	if size < 1 {
		return nil, ErrInvalidLayout.Withf("size=%d", size)
	}
	return &Board{size: size, cells: make([]Tile, size*size)}, nil
}

// FromKinds 以完整填滿的 N×N 種類矩陣建立盤面。
func FromKinds(kinds [][]Kind) (*Board, error) {
	n := len(kinds)
	if n == 0 {
		return nil, ErrInvalidLayout.With("empty layout")
	}
	b, err := New(n)
	if err != nil {
		return nil, err
	}
	for r, row := range kinds {
		if len(row) != n {
			return nil, ErrInvalidLayout.Withf("row %d has %d cells, want %d", r, len(row), n)
		}
		for c, k := range row {
			if k == None {
				return nil, ErrInvalidLayout.Withf("cell %v is empty", Coord{r, c})
			}
			b.cells[r*n+c] = Tile{Kind: k, Coord: Coord{r, c}}
		}
	}
	return b, nil
}

func (b *Board) Size() int { return b.size }

func (b *Board) InBounds(c Coord) bool {
	return c.Row >= 0 && c.Row < b.size && c.Col >= 0 && c.Col < b.size
}

func (b *Board) idx(c Coord) int { return c.Row*b.size + c.Col }

func (b *Board) check(c Coord) error {
	if !b.InBounds(c) {
		return ErrOutOfBounds.Withf("coord=%v size=%d", c, b.size)
	}
	return nil
}

// Place 放置方塊，覆蓋原有方塊。
func (b *Board) Place(c Coord, k Kind) error {
	if err := b.check(c); err != nil {
		return err
	}
	if k == None {
		return ErrInvalidKind.Withf("coord=%v", c)
	}
	b.cells[b.idx(c)] = Tile{Kind: k, Coord: c}
	return nil
}

// Remove 清空格子，本來就是空的則不做事。
func (b *Board) Remove(c Coord) error {
	if err := b.check(c); err != nil {
		return err
	}
	b.cells[b.idx(c)] = Tile{}
	return nil
}

// Get 回傳格子上的方塊，ok=false 表示空格。
func (b *Board) Get(c Coord) (Tile, bool, error) {
	if err := b.check(c); err != nil {
		return Tile{}, false, err
	}
	t := b.cells[b.idx(c)]
	return t, t.Kind != None, nil
}

// KindAt 熱路徑用：不檢查邊界，呼叫端保證座標合法。
func (b *Board) KindAt(r, c int) Kind {
	return b.cells[r*b.size+c].Kind
}

// Move 將 from 的方塊搬到 to (覆蓋)，並清空 from。
// 所有檢查在任何修改之前完成。
func (b *Board) Move(from, to Coord) error {
	if err := b.check(from); err != nil {
		return err
	}
	if err := b.check(to); err != nil {
		return err
	}
	src := b.cells[b.idx(from)]
	if src.Kind == None {
		return ErrSourceEmpty.Withf("from=%v to=%v", from, to)
	}
	if from == to {
		return nil
	}
	b.cells[b.idx(to)] = Tile{Kind: src.Kind, Coord: to}
	b.cells[b.idx(from)] = Tile{}
	return nil
}

// ColumnEmpty 回傳該欄是否完全沒有方塊，欄位越界視為空。
func (b *Board) ColumnEmpty(col int) bool {
	if col < 0 || col >= b.size {
		return true
	}
	for r := 0; r < b.size; r++ {
		if b.cells[r*b.size+col].Kind != None {
			return false
		}
	}
	return true
}

// Count 盤面上的方塊數。
func (b *Board) Count() int {
	n := 0
	for i := range b.cells {
		if b.cells[i].Kind != None {
			n++
		}
	}
	return n
}

// Clear 清空整個盤面。
func (b *Board) Clear() {
	clear(b.cells)
}

// Kinds 回傳 [row][col] 的種類快照，空格為 None。
func (b *Board) Kinds() [][]Kind {
	out := make([][]Kind, b.size)
	for r := range out {
		row := make([]Kind, b.size)
		for c := range row {
			row[c] = b.cells[r*b.size+c].Kind
		}
		out[r] = row
	}
	return out
}

// Histogram 各種類的方塊數量 (index 為 Kind)。
func (b *Board) Histogram() map[Kind]int {
	h := make(map[Kind]int)
	for i := range b.cells {
		if k := b.cells[i].Kind; k != None {
			h[k]++
		}
	}
	return h
}

func (b *Board) Clone() *Board {
	cp := &Board{size: b.size, cells: make([]Tile, len(b.cells))}
	copy(cp.cells, b.cells)
	return cp
}

// Verify 檢查每個非空格的方塊座標與所在格一致。
func (b *Board) Verify() error {
	for i, t := range b.cells {
		if t.Kind == None {
			continue
		}
		want := Coord{Row: i / b.size, Col: i % b.size}
		if t.Coord != want {
			return errs.Fatalf("tile at %v carries coord %v", want, t.Coord)
		}
	}
	return nil
}
