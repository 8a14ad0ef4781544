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

package buf

import "github.com/zintix-labs/popstar/sdk/board"

// Move 一次方塊位移紀錄。
type Move struct {
	From board.Coord `json:"from"`
	To   board.Coord `json:"to"`
}

type EventType uint8

const (
	EventTilesRemoved EventType = iota + 1
	EventTileMoved
	EventGameOver
)

var eventNames = map[EventType]string{
	EventTilesRemoved: "tiles_removed",
	EventTileMoved:    "tile_moved",
	EventGameOver:     "game_over",
}

func (t EventType) String() string {
	if s, ok := eventNames[t]; ok {
		return s
	}
	return "unknown"
}

// Event 對外通知，不帶任何副作用。
// TilesRemoved 使用 Coords；TileMoved 使用 From/To；GameOver 無內容。
type Event struct {
	Type   EventType
	Coords []board.Coord
	From   board.Coord
	To     board.Coord
}

func TilesRemoved(coords []board.Coord) Event {
	return Event{Type: EventTilesRemoved, Coords: coords}
}

func TileMoved(m Move) Event {
	return Event{Type: EventTileMoved, From: m.From, To: m.To}
}

func GameOver() Event {
	return Event{Type: EventGameOver}
}

// Step 一次確認消除的完整結果。
type Step struct {
	Kind     board.Kind    // 被消除的種類
	Removed  []board.Coord // 被消除的座標 (row-major)
	Moves    []Move        // 先垂直、後水平
	Points   int           // 本次得分
	Bonus    int           // 結束時剩餘方塊獎勵
	Total    int           // 累計得分 (含 Bonus)
	Left     int           // 盤面剩餘方塊數
	GameOver bool
	Events   []Event
}

// NewStep 組裝 Step 並依序產生事件：TilesRemoved → TileMoved... → GameOver。
func NewStep(kind board.Kind, removed []board.Coord, moves []Move, gameOver bool) *Step {
	evs := make([]Event, 0, len(moves)+2)
	evs = append(evs, TilesRemoved(removed))
	for _, m := range moves {
		evs = append(evs, TileMoved(m))
	}
	if gameOver {
		evs = append(evs, GameOver())
	}
	return &Step{
		Kind:     kind,
		Removed:  removed,
		Moves:    moves,
		GameOver: gameOver,
		Events:   evs,
	}
}
