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

package gen

import (
	"github.com/zintix-labs/popstar/errs"
	"github.com/zintix-labs/popstar/sdk/board"
	"github.com/zintix-labs/popstar/sdk/chunk"
	"github.com/zintix-labs/popstar/sdk/core"
	"github.com/zintix-labs/popstar/spec"
)

// BoardGenerator 依種類權重填滿盤面。
// 若盤面沒有任何可消除群組則重抽，最多 MaxRegen 次；
// 次數用盡時保留最後一次結果 (例如 1x1 盤面永遠無解)。
type BoardGenerator struct {
	core *core.Core
	gs   *spec.GameSetting

	// finder 綁定最近一次填的盤面，重複使用緩衝
	fb     *board.Board
	finder *chunk.Finder
}

func NewBoardGenerator(c *core.Core, gs *spec.GameSetting) (*BoardGenerator, error) {
	if c == nil || gs == nil {
		return nil, errs.NewFatal("board generator requires core and game setting")
	}
	if len(gs.KindLUT) == 0 {
		return nil, errs.NewFatal("game setting not initialized: empty kind lut")
	}
	return &BoardGenerator{core: c, gs: gs}, nil
}

// Fill 清空並重新填滿 b，回傳實際抽盤次數。
func (g *BoardGenerator) Fill(b *board.Board) (int, error) {
	if b.Size() != g.gs.Size {
		return 0, errs.NewFatal("board size does not match game setting")
	}
	if g.fb != b {
		g.fb = b
		g.finder = chunk.NewFinder(b)
	}
	tries := 0
	for {
		tries++
		if err := g.roll(b); err != nil {
			return tries, err
		}
		if g.finder.HasAnyEliminableGroup() || tries > g.gs.MaxRegen {
			return tries, nil
		}
	}
}

// NewBoard 建立並填滿一個新盤面。
func (g *BoardGenerator) NewBoard() (*board.Board, error) {
	b, err := board.New(g.gs.Size)
	if err != nil {
		return nil, err
	}
	if _, err := g.Fill(b); err != nil {
		return nil, err
	}
	return b, nil
}

func (g *BoardGenerator) roll(b *board.Board) error {
	n := b.Size()
	for r := 0; r < n; r++ {
		for c := 0; c < n; c++ {
			k := board.Kind(g.gs.KindLUT.Pick(g.core) + 1)
			if err := b.Place(board.Coord{Row: r, Col: c}, k); err != nil {
				return err
			}
		}
	}
	return nil
}
