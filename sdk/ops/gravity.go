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
	"github.com/zintix-labs/popstar/sdk/board"
	"github.com/zintix-labs/popstar/sdk/buf"
)

// Gravity 方塊掉落方向。
type Gravity uint8

const (
	// GravityLow 往 row 0 掉落
	GravityLow Gravity = iota
	// GravityHigh 往 row N-1 掉落
	GravityHigh
)

// Compactor 對盤面做兩段式壓縮：先垂直掉落，再把空欄往 col 0 收攏。
type Compactor struct {
	b       *board.Board
	gravity Gravity
	moves   []buf.Move
}

func NewCompactor(b *board.Board, g Gravity) *Compactor {
	return &Compactor{b: b, gravity: g}
}

// row 將「距離低邊的深度」換算成實際 row
func (cp *Compactor) row(depth int) int {
	if cp.gravity == GravityHigh {
		return cp.b.Size() - 1 - depth
	}
	return depth
}

// Compact 執行垂直與水平壓縮，回傳依序發生的位移 (先垂直、後水平)。
// 回傳的切片為新配置，呼叫端可自由保存。
func (cp *Compactor) Compact() ([]buf.Move, error) {
	cp.moves = cp.moves[:0]
	if err := cp.fall(); err != nil {
		return nil, err
	}
	if err := cp.collapse(); err != nil {
		return nil, err
	}
	out := make([]buf.Move, len(cp.moves))
	copy(out, cp.moves)
	return out, nil
}

// Fall 只做垂直掉落。
func (cp *Compactor) Fall() ([]buf.Move, error) {
	cp.moves = cp.moves[:0]
	if err := cp.fall(); err != nil {
		return nil, err
	}
	out := make([]buf.Move, len(cp.moves))
	copy(out, cp.moves)
	return out, nil
}

// fall 每欄獨立，自低邊往高邊掃描；空格向上找最近的方塊拉下來。
// 每個空格一輪最多接收一次掉落，一輪即可使整欄落定。
func (cp *Compactor) fall() error {
	n := cp.b.Size()
	for c := 0; c < n; c++ {
		for d := 0; d < n; d++ {
			r := cp.row(d)
			if cp.b.KindAt(r, c) != board.None {
				continue
			}
			src := -1
			for d2 := d + 1; d2 < n; d2++ {
				if cp.b.KindAt(cp.row(d2), c) != board.None {
					src = cp.row(d2)
					break
				}
			}
			if src < 0 {
				break // 上方全空
			}
			if err := cp.move(board.Coord{Row: src, Col: c}, board.Coord{Row: r, Col: c}); err != nil {
				return err
			}
		}
	}
	return nil
}

// collapse 自 col 0 往右掃描；遇到連續 k 個空欄，把右側所有欄位左移 k。
// 左移後 col c 已是非空欄，從 c+1 繼續，右側若還有空欄區段會再次收攏。
// 與「左移後跳過 k 欄」的掃法相比，只有在後者會留下夾在非空欄之間的空欄時，產生的 moves 才不同。
func (cp *Compactor) collapse() error {
	n := cp.b.Size()
	for c := 0; c < n; c++ {
		if !cp.b.ColumnEmpty(c) {
			continue
		}
		k := 1
		for c+k < n && cp.b.ColumnEmpty(c+k) {
			k++
		}
		if c+k >= n {
			return nil // 空欄延伸到右緣
		}
		for src := c + k; src < n; src++ {
			for r := 0; r < n; r++ {
				if cp.b.KindAt(r, src) == board.None {
					continue
				}
				if err := cp.move(board.Coord{Row: r, Col: src}, board.Coord{Row: r, Col: src - k}); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func (cp *Compactor) move(from, to board.Coord) error {
	if err := cp.b.Move(from, to); err != nil {
		return err
	}
	cp.moves = append(cp.moves, buf.Move{From: from, To: to})
	return nil
}
