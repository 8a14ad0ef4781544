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

package recorder

import (
	"math"

	"github.com/zintix-labs/popstar/errs"
	"github.com/zintix-labs/popstar/spec"
	"github.com/zintix-labs/popstar/stats"
)

var ErrMergeEmpty = errs.NewFatal("merge game record err : no recorder")

// GameResult 單局結束時的結果
type GameResult struct {
	Score    int // 含 Bonus
	Bonus    int
	Steps    int
	Left     int
	MaxGroup int
}

// Cleared 盤面完全清空
func (g GameResult) Cleared() bool {
	return g.Left == 0
}

// GameRecorder 遊戲紀錄員
//
// 每個 worker 持有一個，結束後以 MergeGameRecorder 合併並透過 Done 輸出統計報表
type GameRecorder struct {
	GameName string
	GameId   spec.GID
	Policy   string
	Size     int
	Basic    *BasicRecord
	Dist     *DistRecord
	Scores   []int
}

// BasicRecord 基本遊戲資料紀錄
type BasicRecord struct {
	Games      int
	TotalScore int
	TotalBonus int
	TotalSteps int
	TotalLeft  int
	ScoreSqSum float64 // 平方和
	MaxScore   int
	MinScore   int
	MaxGroup   int
	Cleared    int
}

// DistRecord 分數區間與剩餘方塊落點統計
type DistRecord struct {
	ScoreCollect []int
	LeftCollect  []int
}

func NewGameRecorder(gs *spec.GameSetting, policy string) *GameRecorder {
	return &GameRecorder{
		GameName: gs.GameName,
		GameId:   gs.GameID,
		Policy:   policy,
		Size:     gs.Size,
		Basic:    &BasicRecord{MinScore: math.MaxInt},
		Dist:     newDistRecord(),
	}
}

// MergeGameRecorder 合併多個 worker 的紀錄，遊戲與策略必須一致
func MergeGameRecorder(r []*GameRecorder) (*GameRecorder, error) {
	if len(r) == 0 {
		return nil, ErrMergeEmpty
	}
	r0 := r[0]
	s := &GameRecorder{
		GameName: r0.GameName,
		GameId:   r0.GameId,
		Policy:   r0.Policy,
		Size:     r0.Size,
		Basic:    &BasicRecord{MinScore: math.MaxInt},
		Dist:     newDistRecord(),
	}
	for _, v := range r {
		if v.GameName != r0.GameName || v.GameId != r0.GameId {
			return s, errs.NewFatal("merge game record err : different game")
		}
		if v.Policy != r0.Policy {
			return s, errs.NewFatal("merge game record err : different policy")
		}
		b := v.Basic
		s.Basic.Games += b.Games
		s.Basic.TotalScore += b.TotalScore
		s.Basic.TotalBonus += b.TotalBonus
		s.Basic.TotalSteps += b.TotalSteps
		s.Basic.TotalLeft += b.TotalLeft
		s.Basic.ScoreSqSum += b.ScoreSqSum
		s.Basic.Cleared += b.Cleared
		s.Basic.MaxScore = max(s.Basic.MaxScore, b.MaxScore)
		s.Basic.MinScore = min(s.Basic.MinScore, b.MinScore)
		s.Basic.MaxGroup = max(s.Basic.MaxGroup, b.MaxGroup)

		// 整合Dist
		for i := range len(v.Dist.ScoreCollect) {
			s.Dist.ScoreCollect[i] += v.Dist.ScoreCollect[i]
		}
		for i := range len(v.Dist.LeftCollect) {
			s.Dist.LeftCollect[i] += v.Dist.LeftCollect[i]
		}
		s.Scores = append(s.Scores, v.Scores...)
	}
	return s, nil
}

// Record 以單局結果更新統計
func (s *GameRecorder) Record(g GameResult) {
	s.recordBasic(g)
	s.recordDist(g)
	s.Scores = append(s.Scores, g.Score)
}

func (s *GameRecorder) Done() *stats.Report {
	b := s.Basic
	minScore := b.MinScore
	if b.Games == 0 {
		minScore = 0
	}
	rep := &stats.Report{
		Summary: &stats.SummaryReport{
			GameName:   s.GameName,
			GameId:     s.GameId,
			Policy:     s.Policy,
			Size:       s.Size,
			Games:      b.Games,
			TotalScore: b.TotalScore,
			TotalBonus: b.TotalBonus,
			TotalSteps: b.TotalSteps,
			TotalLeft:  b.TotalLeft,
			MaxScore:   b.MaxScore,
			MinScore:   minScore,
			MaxGroup:   b.MaxGroup,
			Cleared:    b.Cleared,
		},
		Moment: &stats.MomentReport{
			ScoreSum:   float64(b.TotalScore),
			ScoreSqSum: b.ScoreSqSum,
		},
		Dist: &stats.DistReport{
			ScoreBucket:  stats.Buckets.Labels(),
			ScoreCollect: append([]int(nil), s.Dist.ScoreCollect...),
			LeftBucket:   stats.LeftLabels(),
			LeftCollect:  append([]int(nil), s.Dist.LeftCollect...),
		},
		Exp: stats.EstimateScores(s.Scores),
	}
	rep.Done()
	return rep
}

func (s *GameRecorder) recordBasic(g GameResult) {
	b := s.Basic
	b.Games++
	b.TotalScore += g.Score
	b.TotalBonus += g.Bonus
	b.TotalSteps += g.Steps
	b.TotalLeft += g.Left
	b.ScoreSqSum += float64(g.Score) * float64(g.Score)
	b.MaxScore = max(b.MaxScore, g.Score)
	b.MinScore = min(b.MinScore, g.Score)
	b.MaxGroup = max(b.MaxGroup, g.MaxGroup)
	if g.Cleared() {
		b.Cleared++
	}
}

func (s *GameRecorder) recordDist(g GameResult) {
	s.Dist.ScoreCollect[stats.Buckets.Index(g.Score)]++
	s.Dist.LeftCollect[stats.LeftIndex(g.Left)]++
}

func newDistRecord() *DistRecord {
	return &DistRecord{
		ScoreCollect: make([]int, stats.Buckets.Len()),
		LeftCollect:  make([]int, stats.LeftCap+1),
	}
}
