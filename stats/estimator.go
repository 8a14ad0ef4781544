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
	"sort"

	"golang.org/x/text/message"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// ============================================================
// ** 結構宣告 **
// ============================================================

// ScoreEstimate 單局分數分布估計
type ScoreEstimate struct {
	Median PointStat `json:"Median"`
	P10    PointStat `json:"P10"`
	P25    PointStat `json:"P25"`
	P75    PointStat `json:"P75"`
	P90    PointStat `json:"P90"`
	Mean   float64   `json:"Mean"`
	Std    float64   `json:"Std"`
	// 分數達門檻的玩家比例
	Reach []Reach `json:"Reach"`
}

// PointStat 點估計 回傳 估計值 以及信賴區間
type PointStat struct {
	Hat float64 `json:"Hat"`
	CI  CI      `json:"CI"`
}

// Reach 分數 >= Score 的比例估計
type Reach struct {
	Score int       `json:"Score"`
	Prob  PointStat `json:"Prob"`
}

// 預設門檻
var ReachScores = []int{500, 1000, 2000, 3000}

// ============================================================
// ** 對外 **
// ============================================================

// EstimateScores 以單局分數樣本估計分位數 (95% CI) 與達標比例 (Clopper–Pearson)
func EstimateScores(scores []int) *ScoreEstimate {
	out := &ScoreEstimate{}
	n := len(scores)
	if n == 0 {
		return out
	}
	data := make([]float64, n)
	for i, v := range scores {
		data[i] = float64(v)
	}
	sort.Float64s(data)

	out.Mean, out.Std = stat.MeanStdDev(data, nil)
	if n < 2 {
		out.Std = 0
	}
	out.Median = quantileStat(data, 0.5)
	out.P10 = quantileStat(data, 0.10)
	out.P25 = quantileStat(data, 0.25)
	out.P75 = quantileStat(data, 0.75)
	out.P90 = quantileStat(data, 0.90)

	out.Reach = make([]Reach, 0, len(ReachScores))
	for _, th := range ReachScores {
		k := n - sort.SearchFloat64s(data, float64(th))
		hat, ci := proportionCICP(k, n, 0.95)
		out.Reach = append(out.Reach, Reach{Score: th, Prob: PointStat{Hat: hat, CI: ci}})
	}
	return out
}

// ============================================================
// ** 內部統計函數 **
// ============================================================

// sorted 必須已排序
func quantileStat(sorted []float64, q float64) PointStat {
	lo, hi := quantileCI(sorted, q, 0.95)
	return PointStat{
		Hat: stat.Quantile(q, stat.Empirical, sorted, nil),
		CI:  CI{Lo: lo, Hi: hi},
	}
}

// Clopper–Pearson exact CI for binomial proportion (k successes out of n)
func proportionCICP(k int, n int, confidence float64) (pHat float64, ci CI) {
	if n == 0 {
		return 0, CI{0, 1}
	}
	alpha := 1 - confidence
	pHat = float64(k) / float64(n)

	// Beta PPF 映射，處理邊界
	if k == 0 {
		ci.Lo = 0
	} else {
		b := distuv.Beta{Alpha: float64(k), Beta: float64(n - k + 1)}
		ci.Lo = b.Quantile(alpha / 2)
	}
	if k == n {
		ci.Hi = 1
	} else {
		b := distuv.Beta{Alpha: float64(k + 1), Beta: float64(n - k)}
		ci.Hi = b.Quantile(1 - alpha/2)
	}
	return
}

// 第 q 分位的上下界：把 order statistic 的秩視為二項→Beta 反推 p 範圍，再把 p 轉回樣本索引。
// sorted 必須已排序
func quantileCI(sorted []float64, q, confidence float64) (float64, float64) {
	n := len(sorted)
	if n == 0 {
		return 0, 0
	}
	if n == 1 {
		return sorted[0], sorted[0]
	}
	alpha := 1 - confidence
	k := int(q * float64(n))
	if k < 1 {
		k = 1
	} else if k > n-1 {
		k = n - 1
	}

	bLo := distuv.Beta{Alpha: float64(k), Beta: float64(n - k + 1)}
	bHi := distuv.Beta{Alpha: float64(k + 1), Beta: float64(n - k)}
	pLo := bLo.Quantile(alpha / 2)
	pHi := bHi.Quantile(1 - alpha/2)

	li := clampIdx(int(pLo*float64(n)), n)
	ui := int(pHi * float64(n))
	if ui > 0 {
		ui -= 1
	}
	ui = clampIdx(ui, n)
	return sorted[li], sorted[ui]
}

func clampIdx(i, n int) int {
	if i < 0 {
		return 0
	}
	if i > n-1 {
		return n - 1
	}
	return i
}

// ============================================================
// ** 輸出函數 **
// ============================================================

func (e *ScoreEstimate) fmtRows() ([]string, map[string]string) {
	p := message.NewPrinter(lang)
	keys := []string{"P10", "P25", "Median", "P75", "P90"}
	msg := map[string]string{
		"P10":    fmtPoint(p, e.P10),
		"P25":    fmtPoint(p, e.P25),
		"Median": fmtPoint(p, e.Median),
		"P75":    fmtPoint(p, e.P75),
		"P90":    fmtPoint(p, e.P90),
	}
	for _, r := range e.Reach {
		k := p.Sprintf(">= %d", r.Score)
		keys = append(keys, k)
		msg[k] = p.Sprintf("%.2f%% [%.2f%%, %.2f%%]", 100*r.Prob.Hat, 100*r.Prob.CI.Lo, 100*r.Prob.CI.Hi)
	}
	return keys, msg
}

func fmtPoint(p *message.Printer, ps PointStat) string {
	return p.Sprintf("%.0f [%.0f, %.0f]", ps.Hat, ps.CI.Lo, ps.CI.Hi)
}
