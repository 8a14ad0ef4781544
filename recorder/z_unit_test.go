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

package recorder_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/zintix-labs/popstar/recorder"
	"github.com/zintix-labs/popstar/spec"
)

func testSetting() *spec.GameSetting {
	return &spec.GameSetting{GameName: "classic", GameID: 1, Size: 9}
}

func TestRecordAndDone(t *testing.T) {
	r := recorder.NewGameRecorder(testSetting(), "greedy")
	r.Record(recorder.GameResult{Score: 2000, Bonus: 2000, Steps: 10, Left: 0, MaxGroup: 12})
	r.Record(recorder.GameResult{Score: 300, Steps: 8, Left: 5, MaxGroup: 6})
	r.Record(recorder.GameResult{Score: 0, Steps: 0, Left: 81, MaxGroup: 0})

	rep := r.Done()
	s := rep.Summary
	require.Equal(t, 3, s.Games)
	require.Equal(t, 2300, s.TotalScore)
	require.Equal(t, 2000, s.TotalBonus)
	require.Equal(t, 2000, s.MaxScore)
	require.Equal(t, 0, s.MinScore)
	require.Equal(t, 12, s.MaxGroup)
	require.Equal(t, 1, s.Cleared)
	require.InDelta(t, 6.0, s.MeanSteps, 1e-9)
	require.InDelta(t, 86.0/3.0, s.MeanLeft, 1e-9)
	require.Equal(t, "greedy", s.Policy)

	require.Equal(t, 1, rep.Dist.LeftCollect[0])
	require.Equal(t, 1, rep.Dist.LeftCollect[5])
	require.Equal(t, 1, rep.Dist.LeftCollect[len(rep.Dist.LeftCollect)-1])
	require.Equal(t, 1, rep.Dist.ScoreCollect[0])
	require.NotNil(t, rep.Exp)
}

func TestDoneWithoutGames(t *testing.T) {
	r := recorder.NewGameRecorder(testSetting(), "random")
	rep := r.Done()
	require.Equal(t, 0, rep.Summary.Games)
	require.Equal(t, 0, rep.Summary.MinScore)
	require.Equal(t, 0.0, rep.Summary.MeanScore)
}

func TestMerge(t *testing.T) {
	a := recorder.NewGameRecorder(testSetting(), "greedy")
	b := recorder.NewGameRecorder(testSetting(), "greedy")
	a.Record(recorder.GameResult{Score: 100, Steps: 3, Left: 4, MaxGroup: 5})
	b.Record(recorder.GameResult{Score: 900, Steps: 7, Left: 0, MaxGroup: 9})
	b.Record(recorder.GameResult{Score: 50, Steps: 2, Left: 20, MaxGroup: 3})

	m, err := recorder.MergeGameRecorder([]*recorder.GameRecorder{a, b})
	require.NoError(t, err)
	require.Equal(t, 3, m.Basic.Games)
	require.Equal(t, 1050, m.Basic.TotalScore)
	require.Equal(t, 900, m.Basic.MaxScore)
	require.Equal(t, 50, m.Basic.MinScore)
	require.Equal(t, 9, m.Basic.MaxGroup)
	require.Equal(t, 1, m.Basic.Cleared)
	require.Len(t, m.Scores, 3)

	sum := 0
	for _, c := range m.Dist.ScoreCollect {
		sum += c
	}
	require.Equal(t, 3, sum)
}

func TestMergeRejectsMismatch(t *testing.T) {
	a := recorder.NewGameRecorder(testSetting(), "greedy")
	b := recorder.NewGameRecorder(testSetting(), "random")
	_, err := recorder.MergeGameRecorder([]*recorder.GameRecorder{a, b})
	require.Error(t, err)

	_, err = recorder.MergeGameRecorder(nil)
	require.ErrorIs(t, err, recorder.ErrMergeEmpty)
}
