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

// Package sampler 加權抽樣工具。
//
// LUT (Look-Up Table) 以空間換時間：建表時把每個索引依權重重複展開，
// 抽樣只需一次 IntN。方塊種類的權重總和很小，適合此法。
package sampler

import (
	"math"

	"github.com/zintix-labs/popstar/errs"
	"github.com/zintix-labs/popstar/sdk/core"
)

const maxLUTCap uint64 = 10_000_000

var (
	ErrEmptyWeights    = errs.NewCode(errs.Fatal, "lut_empty", "lut: empty weights")
	ErrNegativeWeight  = errs.NewCode(errs.Fatal, "lut_negative", "lut: negative weight")
	ErrZeroWeights     = errs.NewCode(errs.Fatal, "lut_zero", "lut: all weights are zero")
	ErrWeightsTooLarge = errs.NewCode(errs.Fatal, "lut_too_large", "lut: total weight exceeds limit")
)

// Integers 所有底層為整數的型別
type Integers interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 | ~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 | ~uintptr
}

// LUT 例：權重 [3,5,0] 展開為 [0,0,0,1,1,1,1,1]。
type LUT []int

// BuildLUT 根據權重列表建立查找表。
func BuildLUT[T Integers](src []T) (LUT, error) {
	if len(src) == 0 {
		return nil, ErrEmptyWeights
	}
	acc := uint64(0)
	for i, v := range src {
		if v < 0 {
			return nil, ErrNegativeWeight.Withf("index=%d", i)
		}
		uv := uint64(v)
		if acc > math.MaxUint64-uv {
			return nil, ErrWeightsTooLarge.With("overflow")
		}
		acc += uv
	}
	if acc == 0 {
		return nil, ErrZeroWeights
	}
	if acc > maxLUTCap {
		return nil, ErrWeightsTooLarge.Withf("total=%d limit=%d", acc, maxLUTCap)
	}

	lut := make(LUT, 0, int(acc))
	for i, v := range src {
		for j := T(0); j < v; j++ {
			lut = append(lut, i)
		}
	}
	return lut, nil
}

// Pick 由 Core 抽出一個索引，空表回傳 -1。
func (l LUT) Pick(c *core.Core) int {
	return c.Pick(l)
}

// Prob 回傳索引 i 被抽中的機率。
func (l LUT) Prob(i int) float64 {
	if len(l) == 0 {
		return 0
	}
	n := 0
	for _, v := range l {
		if v == i {
			n++
		}
	}
	return float64(n) / float64(len(l))
}
