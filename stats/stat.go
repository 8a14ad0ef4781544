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

package stats

import (
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"
	"github.com/zintix-labs/popstar/spec"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gonum.org/v1/gonum/stat/distuv"
)

var lang language.Tag = language.English

// 信賴區間
type CI struct {
	Lo float64 `json:"Lo"`
	Hi float64 `json:"Hi"`
}

// Report 模擬統計報告
type Report struct {
	Summary *SummaryReport `json:"Summary"`
	Moment  *MomentReport  `json:"Moment"`
	Dist    *DistReport    `json:"Dist"`
	Exp     *ScoreEstimate `json:"Exp,omitempty"`
	isDone  bool
}

type SummaryReport struct {
	GameName   string   `json:"GameName"`
	GameId     spec.GID `json:"GameId"`
	Policy     string   `json:"Policy"`
	Size       int      `json:"Size"`
	Games      int      `json:"Games"`
	TotalScore int      `json:"TotalScore"`
	TotalBonus int      `json:"TotalBonus"`
	TotalSteps int      `json:"TotalSteps"`
	TotalLeft  int      `json:"TotalLeft"`
	MaxScore   int      `json:"MaxScore"`
	MinScore   int      `json:"MinScore"`
	MaxGroup   int      `json:"MaxGroup"`
	Cleared    int      `json:"Cleared"`
	ClearRate  float64  `json:"ClearRate"`
	ClearCI    CI       `json:"ClearCI"`
	MeanScore  float64  `json:"MeanScore"`
	ScoreCI    CI       `json:"ScoreCI"`
	Std        float64  `json:"Std"`
	Cv         float64  `json:"Cv"`
	MeanSteps  float64  `json:"MeanSteps"`
	MeanLeft   float64  `json:"MeanLeft"`
}

// MomentReport 分數動差
//
// 紀錄時以 float64 累加平方和，避免大分數平方溢位
type MomentReport struct {
	ScoreSum   float64 `json:"ScoreSum"`
	ScoreSqSum float64 `json:"ScoreSqSum"` // 平方和
}

// DistReport 分數區間與剩餘方塊落點統計
type DistReport struct {
	ScoreBucket  []string  `json:"ScoreBucket"`
	ScoreCollect []int     `json:"ScoreCollect"`
	ScoreDist    []float64 `json:"ScoreDist"`
	LeftBucket   []string  `json:"LeftBucket"`
	LeftCollect  []int     `json:"LeftCollect"`
	LeftDist     []float64 `json:"LeftDist"`
}

// ============================================================
// ** 公開方法 **
// ============================================================

// Done 將累積計數轉換為最終統計結果並鎖定 isDone 標記。
//
// 記錄過程只處理 int 計數，完成後一次性計算
func (r *Report) Done() {
	if r.isDone {
		return
	}
	s := r.Summary
	s.MeanScore = r.Mean()
	s.Std = r.Std()
	s.Cv = r.Cv()
	s.ScoreCI = r.Ci(0.95)
	s.ClearRate, s.ClearCI = proportionCICP(s.Cleared, s.Games, 0.95)
	if s.Games > 0 {
		s.MeanSteps = float64(s.TotalSteps) / float64(s.Games)
		s.MeanLeft = float64(s.TotalLeft) / float64(s.Games)
	}
	if r.Dist != nil {
		r.Dist.ScoreDist = normalize(r.Dist.ScoreCollect, s.Games)
		r.Dist.LeftDist = normalize(r.Dist.LeftCollect, s.Games)
	}
	r.isDone = true
}

// Mean 回傳單局平均分數
func (r *Report) Mean() float64 {
	if r.Summary.Games == 0 {
		return 0
	}
	return float64(r.Summary.TotalScore) / float64(r.Summary.Games)
}

// Std 回傳單局分數的樣本標準差
func (r *Report) Std() float64 {
	n := float64(r.Summary.Games)
	if n < 2 {
		return 0
	}
	variance := (r.Moment.ScoreSqSum - r.Moment.ScoreSum*r.Moment.ScoreSum/n) / (n - 1)
	if variance < 0 {
		variance = 0
	}
	return math.Sqrt(variance)
}

// Cv 回傳單局分數的變異係數
func (r *Report) Cv() float64 {
	mean := r.Mean()
	if mean <= 0 {
		return 0
	}
	return r.Std() / mean
}

// Ci 回傳平均分數的 Student-t 信賴區間
func (r *Report) Ci(confidence float64) CI {
	mean := r.Mean()
	n := r.Summary.Games
	if n < 2 {
		return CI{Lo: mean, Hi: mean}
	}
	se := r.Std() / math.Sqrt(float64(n))
	t := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(n - 1)}
	q := t.Quantile(1 - (1-confidence)/2)
	return CI{
		Lo: max(mean-q*se, 0.0),
		Hi: mean + q*se,
	}
}

func (r *Report) IsDone() bool {
	return r.isDone
}

func (r *Report) WriteWith(w io.Writer, rep ReportRender) error {
	r.Done()
	return rep.Write(w, r)
}

// StdOut 輸出耗時與摘要表格
func (r *Report) StdOut(ut time.Duration) {
	r.Done()
	fmt.Print(formatDuration(ut, r.Summary.Games))
	sk, sm := r.fmtBasic()
	fmt.Println(fmtTable(r.Summary.GameName, sk, sm))
	if r.Exp != nil {
		ek, em := r.Exp.fmtRows()
		fmt.Println(fmtTable("Score Quantiles", ek, em))
	}
}

// ============================================================
// ** 內部方法 **
// ============================================================

func normalize(collect []int, n int) []float64 {
	out := make([]float64, len(collect))
	if n == 0 {
		return out
	}
	for i, c := range collect {
		out[i] = float64(c) / float64(n)
	}
	return out
}

func formatDuration(d time.Duration, games int) string {
	p := message.NewPrinter(lang)
	if d < 0 {
		d = -d
	}
	sec := d.Seconds()
	if sec <= 0 {
		sec = 1e-9
	}
	gps := int(float64(games) / sec)
	if sec < 60.0 {
		return p.Sprintf("used: %.2f seconds\ngps : %d games/sec\n", sec, gps)
	}
	s := int(d.Seconds()) % 60
	m := int(d.Minutes()) % 60
	h := int(d.Hours())
	if h == 0 {
		return p.Sprintf("used: %dm %ds\ngps : %d games/sec\n", m, s, gps)
	}
	return p.Sprintf("used: %dh:%dm:%ds\ngps : %d games/sec\n", h, m, s, gps)
}

func (r *Report) fmtBasic() ([]string, map[string]string) {
	p := message.NewPrinter(lang)
	s := r.Summary
	basic := map[string]string{
		"Game Name":    p.Sprintf("%s", s.GameName),
		"Game ID":      fmt.Sprintf("%d", s.GameId),
		"Policy":       p.Sprintf("%s", s.Policy),
		"Games":        p.Sprintf("%d", s.Games),
		"Mean Score":   p.Sprintf("%.2f", s.MeanScore),
		"Score 95% CI": p.Sprintf("[%.2f,%.2f]", s.ScoreCI.Lo, s.ScoreCI.Hi),
		"Max Score":    p.Sprintf("%d", s.MaxScore),
		"Min Score":    p.Sprintf("%d", s.MinScore),
		"Total Bonus":  p.Sprintf("%d", s.TotalBonus),
		"Clear Rate":   p.Sprintf("%.2f %%", 100.0*s.ClearRate),
		"Clear 95% CI": p.Sprintf("[%.2f%%,%.2f%%]", 100.0*s.ClearCI.Lo, 100.0*s.ClearCI.Hi),
		"Mean Steps":   p.Sprintf("%.2f", s.MeanSteps),
		"Mean Left":    p.Sprintf("%.2f", s.MeanLeft),
		"Max Group":    p.Sprintf("%d", s.MaxGroup),
		"STD":          p.Sprintf("%.3f", s.Std),
		"CV":           p.Sprintf("%.3f", s.Cv),
	}
	keys := []string{"Game Name", "Game ID", "Policy", "Games", "Mean Score", "Score 95% CI", "Max Score", "Min Score", "Total Bonus", "Clear Rate", "Clear 95% CI", "Mean Steps", "Mean Left", "Max Group", "STD", "CV"}
	return keys, basic
}

func fmtTable(title string, keys []string, msg map[string]string) string {
	maxKeyLen := runewidth.StringWidth(title) - 1
	maxValLen := 0
	for k, m := range msg {
		if w := runewidth.StringWidth(k); w > maxKeyLen {
			maxKeyLen = w
		}
		if w := runewidth.StringWidth(m); w > maxValLen {
			maxValLen = w
		}
	}
	maxKeyLen += 2
	maxValLen += 2

	divider := "+" + strings.Repeat("-", maxKeyLen) + "+" + strings.Repeat("-", maxValLen) + "+\n"
	top := "+" + strings.Repeat("-", maxKeyLen+1+maxValLen) + "+\n"

	totalInner := maxKeyLen + maxValLen + 1
	titleW := runewidth.StringWidth(title)

	left := (totalInner - titleW) / 2
	right := totalInner - titleW - left

	var sb strings.Builder
	sb.WriteString(top)
	sb.WriteString("|" + blank(left) + title + blank(right) + "|\n")
	sb.WriteString(divider)
	for _, k := range keys {
		v := msg[k]
		sb.WriteString("| " + k + blank(maxKeyLen-2-runewidth.StringWidth(k)) + " | " + v + blank(maxValLen-2-runewidth.StringWidth(v)) + " |\n")
	}
	sb.WriteString(divider)
	return sb.String()
}

func blank(w int) string {
	if w < 1 {
		return ""
	}
	return strings.Repeat(" ", w)
}
