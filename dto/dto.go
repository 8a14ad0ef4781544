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

package dto

import (
	"github.com/zintix-labs/popstar/corefmt"
	"github.com/zintix-labs/popstar/sdk/board"
	"github.com/zintix-labs/popstar/sdk/buf"
	"github.com/zintix-labs/popstar/sdk/chunk"
	"github.com/zintix-labs/popstar/spec"
)

// SessionView 一局遊戲的對外快照。Board 每列一個字串 (A=第一種，'.'=空)。
type SessionView struct {
	ID        string        `json:"id,omitempty"`
	GID       spec.GID      `json:"gid"`
	Game      string        `json:"game"`
	Size      int           `json:"size"`
	Gravity   spec.Gravity  `json:"gravity"`
	Kinds     []string      `json:"kinds"`
	Board     []string      `json:"board"`
	Layout    string        `json:"layout"`
	Score     int           `json:"score"`
	Steps     int           `json:"steps"`
	Left      int           `json:"left"`
	GameOver  bool          `json:"game_over"`
	Selection *SelectionDTO `json:"selection,omitempty"`
	Seed      int64         `json:"seed"`
	Round     int           `json:"round"`
}

type SelectionDTO struct {
	Kind       string        `json:"kind"`
	Seed       board.Coord   `json:"seed"`
	Coords     []board.Coord `json:"coords"`
	Size       int           `json:"size"`
	Eliminable bool          `json:"eliminable"`
	Points     int           `json:"points"`
}

type EventDTO struct {
	Type   string        `json:"type"`
	Coords []board.Coord `json:"coords,omitempty"`
	From   *board.Coord  `json:"from,omitempty"`
	To     *board.Coord  `json:"to,omitempty"`
}

type StepDTO struct {
	Kind     string        `json:"kind"`
	Removed  []board.Coord `json:"removed"`
	Moves    []buf.Move    `json:"moves"`
	Points   int           `json:"points"`
	Bonus    int           `json:"bonus"`
	Total    int           `json:"total"`
	Left     int           `json:"left"`
	GameOver bool          `json:"game_over"`
	Events   []EventDTO    `json:"events"`
}

// KindName names[i] 對應 Kind(i+1)；超出範圍時退回字母表示。
func KindName(names []string, k board.Kind) string {
	if k == board.None {
		return ""
	}
	if int(k) <= len(names) {
		return names[k-1]
	}
	return corefmt.EncodeText([][]board.Kind{{k}})[0]
}

// BoardView 盤面文字與分享碼。
func BoardView(kinds [][]board.Kind) (rows []string, layout string) {
	return corefmt.EncodeText(kinds), corefmt.EncodeLayout(kinds)
}

func NewSelectionDTO(g chunk.Group, points int, names []string) *SelectionDTO {
	return &SelectionDTO{
		Kind:       KindName(names, g.Kind()),
		Seed:       g.Seed(),
		Coords:     g.Coords(),
		Size:       g.Size(),
		Eliminable: g.Eliminable(),
		Points:     points,
	}
}

func NewEventDTO(ev buf.Event) EventDTO {
	out := EventDTO{Type: ev.Type.String()}
	switch ev.Type {
	case buf.EventTilesRemoved:
		out.Coords = ev.Coords
	case buf.EventTileMoved:
		from, to := ev.From, ev.To
		out.From, out.To = &from, &to
	}
	return out
}

func NewStepDTO(st *buf.Step, names []string) StepDTO {
	out := StepDTO{
		Kind:     KindName(names, st.Kind),
		Removed:  st.Removed,
		Moves:    st.Moves,
		Points:   st.Points,
		Bonus:    st.Bonus,
		Total:    st.Total,
		Left:     st.Left,
		GameOver: st.GameOver,
		Events:   make([]EventDTO, len(st.Events)),
	}
	if out.Moves == nil {
		out.Moves = []buf.Move{}
	}
	for i, ev := range st.Events {
		out.Events[i] = NewEventDTO(ev)
	}
	return out
}
