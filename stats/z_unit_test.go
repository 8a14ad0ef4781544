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

package stats_test

import (
	"bytes"
	"encoding/json"
	"math"
	"strings"
	"testing"

	"github.com/zintix-labs/popstar/stats"
	"gopkg.in/yaml.v3"
)

// buildReport constructs a Report from a list of per-game scores.
// A game counts as cleared when its score is even, to have a stable ratio.
func buildReport(scores []int) *stats.Report {
	rep := &stats.Report{
		Summary: &stats.SummaryReport{GameName: "TestGame", Games: len(scores)},
		Moment:  &stats.MomentReport{},
		Dist: &stats.DistReport{
			ScoreBucket:  stats.Buckets.Labels(),
			ScoreCollect: make([]int, stats.Buckets.Len()),
			LeftBucket:   stats.LeftLabels(),
			LeftCollect:  make([]int, stats.LeftCap+1),
		},
	}
	for _, sc := range scores {
		rep.Summary.TotalScore += sc
		rep.Moment.ScoreSum += float64(sc)
		rep.Moment.ScoreSqSum += float64(sc) * float64(sc)
		rep.Dist.ScoreCollect[stats.Buckets.Index(sc)]++
		if sc%2 == 0 {
			rep.Summary.Cleared++
			rep.Dist.LeftCollect[0]++
		} else {
			rep.Dist.LeftCollect[stats.LeftIndex(3)]++
		}
	}
	return rep
}

func TestBucketIndex(t *testing.T) {
	cases := []struct {
		score int
		label string
	}{
		{0, "[0,0]"},
		{1, "(0,100)"},
		{99, "(0,100)"},
		{100, "[100,250)"},
		{4999, "[3000,5000)"},
		{5000, "[5000,+inf)"},
		{123456, "[5000,+inf)"},
	}
	labels := stats.Buckets.Labels()
	for _, c := range cases {
		got := labels[stats.Buckets.Index(c.score)]
		if got != c.label {
			t.Fatalf("score %d: expected %s, got %s", c.score, c.label, got)
		}
	}
}

func TestLeftIndex(t *testing.T) {
	if stats.LeftIndex(0) != 0 || stats.LeftIndex(7) != 7 {
		t.Fatalf("unexpected left index")
	}
	if stats.LeftIndex(stats.LeftCap) != stats.LeftCap || stats.LeftIndex(99) != stats.LeftCap {
		t.Fatalf("left overflow should land in last bucket")
	}
	if l := stats.LeftLabels(); l[len(l)-1] != "10+" {
		t.Fatalf("unexpected last label %s", l[len(l)-1])
	}
}

func TestReportDone(t *testing.T) {
	rep := buildReport([]int{100, 200, 300, 400, 501})
	rep.Done()
	s := rep.Summary
	if math.Abs(s.MeanScore-300.2) > 1e-9 {
		t.Fatalf("mean: got %v", s.MeanScore)
	}
	if s.Std <= 0 {
		t.Fatalf("std should be positive, got %v", s.Std)
	}
	if !(s.ScoreCI.Lo <= s.MeanScore && s.MeanScore <= s.ScoreCI.Hi) {
		t.Fatalf("mean %v outside CI %+v", s.MeanScore, s.ScoreCI)
	}
	if math.Abs(s.ClearRate-0.8) > 1e-9 {
		t.Fatalf("clear rate: got %v", s.ClearRate)
	}
	if !(s.ClearCI.Lo < 0.8 && 0.8 < s.ClearCI.Hi) {
		t.Fatalf("clear CI %+v should contain 0.8", s.ClearCI)
	}
	sum := 0.0
	for _, p := range rep.Dist.ScoreDist {
		sum += p
	}
	if math.Abs(sum-1) > 1e-9 {
		t.Fatalf("score dist should sum to 1, got %v", sum)
	}
	if !rep.IsDone() {
		t.Fatalf("report should be done")
	}
}

func TestReportStdZeroForSingleGame(t *testing.T) {
	rep := buildReport([]int{250})
	rep.Done()
	if rep.Summary.Std != 0 {
		t.Fatalf("std of one game should be 0, got %v", rep.Summary.Std)
	}
	if rep.Summary.ScoreCI.Lo != 250 || rep.Summary.ScoreCI.Hi != 250 {
		t.Fatalf("CI of one game should collapse, got %+v", rep.Summary.ScoreCI)
	}
}

func TestEstimateScores(t *testing.T) {
	scores := make([]int, 0, 1000)
	for i := 0; i < 1000; i++ {
		scores = append(scores, i*5)
	}
	est := stats.EstimateScores(scores)
	if est.Median.Hat < 2400 || est.Median.Hat > 2600 {
		t.Fatalf("median out of range: %v", est.Median.Hat)
	}
	if !(est.P10.Hat <= est.P25.Hat && est.P25.Hat <= est.Median.Hat && est.Median.Hat <= est.P75.Hat && est.P75.Hat <= est.P90.Hat) {
		t.Fatalf("quantiles not ordered: %+v", est)
	}
	if !(est.Median.CI.Lo <= est.Median.Hat && est.Median.Hat <= est.Median.CI.Hi) {
		t.Fatalf("median CI %+v does not contain %v", est.Median.CI, est.Median.Hat)
	}
	if len(est.Reach) != len(stats.ReachScores) {
		t.Fatalf("reach length mismatch")
	}
	// 分數 >= 1000 的有 800 局
	for _, r := range est.Reach {
		if r.Score == 1000 && math.Abs(r.Prob.Hat-0.8) > 1e-9 {
			t.Fatalf("reach 1000: got %v", r.Prob.Hat)
		}
	}
}

func TestEstimateScoresEmpty(t *testing.T) {
	est := stats.EstimateScores(nil)
	if est.Median.Hat != 0 || len(est.Reach) != 0 {
		t.Fatalf("empty sample should give zero estimate")
	}
}

func TestRenders(t *testing.T) {
	rep := buildReport([]int{10, 20, 30})
	rep.Exp = stats.EstimateScores([]int{10, 20, 30})

	var jb bytes.Buffer
	jr, ok := stats.RenderByName("json")
	if !ok {
		t.Fatalf("json render missing")
	}
	if err := rep.WriteWith(&jb, jr); err != nil {
		t.Fatalf("json: %v", err)
	}
	var back map[string]any
	if err := json.Unmarshal(jb.Bytes(), &back); err != nil {
		t.Fatalf("json decode: %v", err)
	}
	if _, ok := back["Summary"]; !ok {
		t.Fatalf("json output missing Summary")
	}

	var yb bytes.Buffer
	yr, ok := stats.RenderByName("yaml")
	if !ok {
		t.Fatalf("yaml render missing")
	}
	if err := rep.WriteWith(&yb, yr); err != nil {
		t.Fatalf("yaml: %v", err)
	}
	// 最內層陣列使用 flow style
	if !strings.Contains(yb.String(), "scorecollect: [") {
		t.Fatalf("expected flow style list, got:\n%s", yb.String())
	}
	var ym map[string]any
	if err := yaml.Unmarshal(yb.Bytes(), &ym); err != nil {
		t.Fatalf("yaml decode: %v", err)
	}

	if _, ok := stats.RenderByName("xml"); ok {
		t.Fatalf("xml should not be supported")
	}
}
