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
	"testing"

	"github.com/zintix-labs/popstar/sdk/board"
	"github.com/zintix-labs/popstar/sdk/chunk"
	"github.com/zintix-labs/popstar/sdk/core"
	"github.com/zintix-labs/popstar/spec"
)

func testSetting(t *testing.T, raw string) *spec.GameSetting {
	t.Helper()
	gs, err := spec.GetGameSettingByJSON([]byte(raw))
	if err != nil {
		t.Fatalf("setting: %v", err)
	}
	return gs
}

func TestNewBoardIsFullAndPlayable(t *testing.T) {
	gs := testSetting(t, `{"game_name":"g","game_id":1,"size":6,"kinds":[{"name":"a","weight":1},{"name":"b","weight":1},{"name":"c","weight":0}]}`)
	g, err := NewBoardGenerator(core.New(core.Default().New(5)), gs)
	if err != nil {
		t.Fatalf("generator: %v", err)
	}
	b, err := g.NewBoard()
	if err != nil {
		t.Fatalf("new board: %v", err)
	}
	if b.Count() != 36 {
		t.Fatalf("board must be fully populated, got %d tiles", b.Count())
	}
	if b.Histogram()[board.Kind(3)] != 0 {
		t.Fatalf("zero weight kind was generated")
	}
	if !chunk.NewFinder(b).HasAnyEliminableGroup() {
		t.Fatalf("generated board has no legal move")
	}
}

func TestGeneratorDeterministic(t *testing.T) {
	gs := testSetting(t, `{"game_name":"g","game_id":1,"size":5,"kinds":[{"name":"a","weight":1},{"name":"b","weight":2},{"name":"c","weight":3}]}`)
	g1, _ := NewBoardGenerator(core.New(core.Default().New(77)), gs)
	g2, _ := NewBoardGenerator(core.New(core.Default().New(77)), gs)
	b1, _ := g1.NewBoard()
	b2, _ := g2.NewBoard()
	k1, k2 := b1.Kinds(), b2.Kinds()
	for r := range k1 {
		for c := range k1[r] {
			if k1[r][c] != k2[r][c] {
				t.Fatalf("same seed produced different boards at (%d,%d)", r, c)
			}
		}
	}
}

func TestFillGivesUpAfterMaxRegen(t *testing.T) {
	gs := testSetting(t, `{"game_name":"g","game_id":1,"size":1,"max_regen":3,"kinds":[{"name":"a","weight":1}]}`)
	g, _ := NewBoardGenerator(core.New(core.Default().New(1)), gs)
	b, _ := board.New(1)
	tries, err := g.Fill(b)
	if err != nil {
		t.Fatalf("fill: %v", err)
	}
	if tries != 4 {
		t.Fatalf("expected 1 + max_regen tries, got %d", tries)
	}
	if b.Count() != 1 {
		t.Fatalf("board must still be populated")
	}
}

func TestFillRejectsSizeMismatch(t *testing.T) {
	gs := testSetting(t, `{"game_name":"g","game_id":1,"size":4,"kinds":[{"name":"a","weight":1}]}`)
	g, _ := NewBoardGenerator(core.New(core.Default().New(1)), gs)
	b, _ := board.New(3)
	if _, err := g.Fill(b); err == nil {
		t.Fatalf("expected size mismatch error")
	}
}
