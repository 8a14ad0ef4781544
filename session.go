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

package popstar

import (
	"sync"

	"github.com/zintix-labs/popstar/dto"
	"github.com/zintix-labs/popstar/errs"
	"github.com/zintix-labs/popstar/recorder"
	"github.com/zintix-labs/popstar/sdk/board"
	"github.com/zintix-labs/popstar/sdk/buf"
	"github.com/zintix-labs/popstar/sdk/chunk"
	"github.com/zintix-labs/popstar/sdk/core"
	"github.com/zintix-labs/popstar/sdk/gen"
	"github.com/zintix-labs/popstar/sdk/ops"
	"github.com/zintix-labs/popstar/spec"
)

var ErrNoActiveSelection = errs.NewCode(errs.Warn, "no_active_selection", "no active eliminable selection")

// EndBonus 遊戲結束時依剩餘方塊數給的獎勵，由設定檔 fixed 區塊提供：
//
//	fixed:
//	  bonus_base: 2000
//	  bonus_step: 20
//	  bonus_limit: 10
//
// 剩餘 left < Limit 時獎勵 max(0, Base - Step*left^2)，未設定時不給獎勵。
type EndBonus struct {
	Base  int `yaml:"bonus_base"`
	Step  int `yaml:"bonus_step"`
	Limit int `yaml:"bonus_limit"`
}

// Award 回傳剩餘 left 顆時的獎勵
func (b EndBonus) Award(left int) int {
	if left < 0 || left >= b.Limit {
		return 0
	}
	return max(0, b.Base-b.Step*left*left)
}

// Session 一局消除遊戲。
//
// Session 擁有自己的 Board，所有操作都在同一把鎖下完成；
// 不同 Session 之間不共享任何可變狀態，因此可以任意併發。
//
// 流程：SelectSeed 選取群組 -> ConfirmElimination 消除並壓縮 -> 檢查是否結束。
type Session struct {
	mu sync.Mutex

	gs    *spec.GameSetting
	names []string
	bonus EndBonus

	core      *core.Core
	gen       *gen.BoardGenerator
	board     *board.Board
	finder    *chunk.Finder
	compactor *ops.Compactor

	selection *chunk.Group
	score     int
	steps     int
	maxGroup  int
	lastBonus int
	over      bool

	initSeed int64 // 出生 seed（便於追溯；完整重現請用 SnapshotCore/RestoreCore）
	round    int   // 第幾盤，Restart 後遞增
}

func gravityOf(g spec.Gravity) ops.Gravity {
	if g == spec.GravityHigh {
		return ops.GravityHigh
	}
	return ops.GravityLow
}

func newSessionBase(gs *spec.GameSetting, cf core.PRNGFactory, seed int64) (*Session, error) {
	if gs == nil || cf == nil {
		return nil, errs.NewFatal("session requires game setting and prng factory")
	}
	s := &Session{
		gs:       gs,
		names:    gs.KindNames(),
		core:     core.New(cf.New(seed)),
		initSeed: seed,
	}
	if err := spec.DecodeFixed(gs, &s.bonus); err != nil {
		return nil, err
	}
	g, err := gen.NewBoardGenerator(s.core, gs)
	if err != nil {
		return nil, err
	}
	s.gen = g
	b, err := board.New(gs.Size)
	if err != nil {
		return nil, err
	}
	s.bind(b)
	return s, nil
}

// newSessionWithSeed 以指定 seed 產生盤面；同設定 + 同 seed 得到同一盤。
func newSessionWithSeed(gs *spec.GameSetting, cf core.PRNGFactory, seed int64) (*Session, error) {
	s, err := newSessionBase(gs, cf, seed)
	if err != nil {
		return nil, err
	}
	if _, err := s.gen.Fill(s.board); err != nil {
		return nil, err
	}
	s.reset()
	return s, nil
}

// newSessionWithLayout 以外部提供的盤面開局，Restart 之後改用亂數產生。
func newSessionWithLayout(gs *spec.GameSetting, cf core.PRNGFactory, seed int64, kinds [][]board.Kind) (*Session, error) {
	if len(kinds) != gs.Size {
		return nil, board.ErrInvalidLayout.Withf("layout size %d, game %s expects %d", len(kinds), gs.GameName, gs.Size)
	}
	for _, row := range kinds {
		for _, k := range row {
			if int(k) > len(gs.Kinds) {
				return nil, board.ErrInvalidKind.Withf("kind %d not defined in game %s", k, gs.GameName)
			}
		}
	}
	b, err := board.FromKinds(kinds)
	if err != nil {
		return nil, err
	}
	s, err := newSessionBase(gs, cf, seed)
	if err != nil {
		return nil, err
	}
	s.bind(b)
	s.reset()
	return s, nil
}

func (s *Session) bind(b *board.Board) {
	s.board = b
	s.finder = chunk.NewFinder(b)
	s.compactor = ops.NewCompactor(b, gravityOf(s.gs.Gravity))
}

func (s *Session) reset() {
	s.selection = nil
	s.score = 0
	s.steps = 0
	s.maxGroup = 0
	s.lastBonus = 0
	s.over = !s.finder.HasAnyEliminableGroup()
}

// SelectSeed 計算 c 所在的群組並設為目前選取。
// 越界或空格會被拒絕，且不影響先前的選取。
func (s *Session) SelectSeed(c board.Coord) (chunk.Group, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, err := s.finder.FindGroup(c)
	if err != nil {
		return chunk.Group{}, err
	}
	s.selection = &g
	return g, nil
}

// ConfirmElimination 消除目前選取的群組，壓縮盤面並回傳依序發生的事件。
// 沒有選取或選取不可消除時回傳 ErrNoActiveSelection，盤面不變。
func (s *Session) ConfirmElimination() (*buf.Step, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selection == nil {
		return nil, ErrNoActiveSelection
	}
	g := *s.selection
	if !g.Eliminable() {
		s.selection = nil
		return nil, ErrNoActiveSelection.Withf("group at %v has size %d", g.Seed(), g.Size())
	}

	removed := g.Coords()
	if err := ops.Clear(s.board, removed); err != nil {
		return nil, err
	}
	s.selection = nil
	moves, err := s.compactor.Compact()
	if err != nil {
		// 壓縮中途失敗代表盤面不可信
		return nil, errs.Wrap(err, "compact failed")
	}

	s.steps++
	s.maxGroup = max(s.maxGroup, len(removed))
	points := s.gs.Score(len(removed))
	s.score += points

	left := s.board.Count()
	over := !s.finder.HasAnyEliminableGroup()
	bonus := 0
	if over {
		bonus = s.bonus.Award(left)
		s.score += bonus
		s.lastBonus = bonus
		s.over = true
	}

	st := buf.NewStep(g.Kind(), removed, moves, over)
	st.Points = points
	st.Bonus = bonus
	st.Total = s.score
	st.Left = left
	return st, nil
}

// CancelSelection 放棄目前選取，回傳是否真的有選取被放棄。盤面不變。
func (s *Session) CancelSelection() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	had := s.selection != nil
	s.selection = nil
	return had
}

// Selection 目前選取的群組
func (s *Session) Selection() (chunk.Group, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selection == nil {
		return chunk.Group{}, false
	}
	return *s.selection, true
}

// Restart 以 Session 自己的亂數重新產生盤面並歸零分數。
func (s *Session) Restart() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.gen.Fill(s.board); err != nil {
		return err
	}
	s.round++
	s.reset()
	return nil
}

// EliminableGroups 盤面上所有可消除的群組
func (s *Session) EliminableGroups() []chunk.Group {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.eliminable()
}

func (s *Session) eliminable() []chunk.Group {
	all := s.finder.Groups()
	out := all[:0]
	for _, g := range all {
		if g.Eliminable() {
			out = append(out, g)
		}
	}
	return out
}

// Hint 回傳最大的可消除群組；同大小取先出現者。
func (s *Session) Hint() (chunk.Group, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	best := chunk.Group{}
	found := false
	for _, g := range s.eliminable() {
		if !found || g.Size() > best.Size() {
			best = g
			found = true
		}
	}
	return best, found
}

// Points 消除 g 可得的分數（不可消除為 0）
func (s *Session) Points(g chunk.Group) int {
	if !g.Eliminable() {
		return 0
	}
	return s.gs.Score(g.Size())
}

func (s *Session) Score() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.score
}

func (s *Session) GameOver() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.over
}

func (s *Session) Left() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.board.Count()
}

// Kinds 盤面快照 [row][col]
func (s *Session) Kinds() [][]board.Kind {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.board.Kinds()
}

func (s *Session) Setting() *spec.GameSetting {
	return s.gs
}

func (s *Session) Seed() int64 {
	return s.initSeed
}

// SnapshotCore 取出亂數核心狀態，搭配 RestoreCore 可重現之後的 Restart 盤面。
func (s *Session) SnapshotCore() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.core.Snapshot()
}

func (s *Session) RestoreCore(b []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.core.Restore(b)
}

// View 對外快照
func (s *Session) View(id string) dto.SessionView {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, layout := dto.BoardView(s.board.Kinds())
	v := dto.SessionView{
		ID:       id,
		GID:      s.gs.GameID,
		Game:     s.gs.GameName,
		Size:     s.gs.Size,
		Gravity:  s.gs.Gravity,
		Kinds:    s.names,
		Board:    rows,
		Layout:   layout,
		Score:    s.score,
		Steps:    s.steps,
		Left:     s.board.Count(),
		GameOver: s.over,
		Seed:     s.initSeed,
		Round:    s.round,
	}
	if s.selection != nil {
		v.Selection = dto.NewSelectionDTO(*s.selection, s.Points(*s.selection), s.names)
	}
	return v
}

// Result 目前這盤的結算，供模擬紀錄使用
func (s *Session) Result() recorder.GameResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return recorder.GameResult{
		Score:    s.score,
		Bonus:    s.lastBonus,
		Steps:    s.steps,
		Left:     s.board.Count(),
		MaxGroup: s.maxGroup,
	}
}
