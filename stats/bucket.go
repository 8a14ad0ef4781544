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

import "strconv"

const (
	// 剩餘方塊統計上限，>= LeftCap 全部落入最後一桶
	LeftCap int = 10
)

// ScoreBuckets 分數區間
//
// 用來快速定位得分 -> DistReport 位置 O(1)
type ScoreBuckets struct {
	edges  []int
	labels []string
	lut    []int
	maxIdx int
}

// Buckets 預設分數區間
//
// 請勿修改預設值
//   - 區間: [0,0], (0,100), [100,250), [250,500), ..., [3000,5000), [5000,+inf)
var Buckets *ScoreBuckets = NewScoreBuckets([]int{0, 100, 250, 500, 1000, 2000, 3000, 5000})

// NewScoreBuckets 由遞增邊界建立區間，edges[0] 必須為 0
func NewScoreBuckets(edges []int) *ScoreBuckets {
	cp := append([]int(nil), edges...)
	if len(cp) == 0 || cp[0] != 0 {
		cp = append([]int{0}, cp...)
	}
	labels := make([]string, 0, len(cp)+1)
	labels = append(labels, "[0,0]")
	for i := 1; i < len(cp); i++ {
		open := "["
		if i == 1 {
			open = "("
		}
		labels = append(labels, open+strconv.Itoa(cp[i-1])+","+strconv.Itoa(cp[i])+")")
	}
	labels = append(labels, "["+strconv.Itoa(cp[len(cp)-1])+",+inf)")

	top := cp[len(cp)-1]
	lut := make([]int, top)
	idx := 1
	for i := 1; i < top; i++ {
		// 僅在還有更高邊界時才前進 idx
		for idx < len(cp)-1 && i >= cp[idx] {
			idx++
		}
		lut[i] = idx
	}
	return &ScoreBuckets{
		edges:  cp,
		labels: labels,
		lut:    lut,
		maxIdx: len(labels) - 1,
	}
}

func (b *ScoreBuckets) Labels() []string {
	return b.labels
}

func (b *ScoreBuckets) Len() int {
	return len(b.labels)
}

// Index 回傳分數所屬區間
func (b *ScoreBuckets) Index(score int) int {
	if score <= 0 {
		return 0
	}
	if score >= len(b.lut) {
		return b.maxIdx
	}
	return b.lut[score]
}

// LeftLabels 剩餘方塊桶標籤: 0, 1, ..., LeftCap-1, LeftCap+
func LeftLabels() []string {
	out := make([]string, LeftCap+1)
	for i := 0; i < LeftCap; i++ {
		out[i] = strconv.Itoa(i)
	}
	out[LeftCap] = strconv.Itoa(LeftCap) + "+"
	return out
}

// LeftIndex 回傳剩餘方塊數所屬桶
func LeftIndex(left int) int {
	if left < 0 {
		return 0
	}
	if left >= LeftCap {
		return LeftCap
	}
	return left
}
