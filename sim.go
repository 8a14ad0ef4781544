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
	"context"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cheggaaa/pb/v3"
	"github.com/zintix-labs/popstar/errs"
	"github.com/zintix-labs/popstar/recorder"
	"github.com/zintix-labs/popstar/sdk/core"
	"github.com/zintix-labs/popstar/sdk/policy"
	"github.com/zintix-labs/popstar/spec"
	"github.com/zintix-labs/popstar/stats"
)

const capPrepare int = 100

// Simulator 以策略自動對局，可建立多個 Session 平行紀錄統計。
//
// 第 0 個 worker 使用初始 seed，其餘 worker 的 seed 由 seedMaker 依序產生，
// 因此同一個 seed + 同樣的 workers 數量結果可重現。
type Simulator struct {
	GameName  string                   // 遊戲名稱
	GameId    spec.GID                 // 遊戲 ID
	gs        *spec.GameSetting        // 方便重用建立 Session
	policies  *policy.Registry         // 策略註冊表
	cf        core.PRNGFactory         // 亂數生成器
	initSeed  int64                    // 初始下的種子
	seedmaker *seedMaker               // 種子生成器
	sBuf      []*Session               // 併發執行的 Session
	fresh     []bool                   // sBuf[i] 的盤面尚未被下過
	rBuf      []*recorder.GameRecorder // 併發遊戲紀錄員
}

func newSimulatorWithSeed(gs *spec.GameSetting, reg *policy.Registry, cf core.PRNGFactory, seed int64) (*Simulator, error) {
	s := &Simulator{
		GameName:  gs.GameName,
		GameId:    gs.GameID,
		gs:        gs,
		policies:  reg,
		cf:        cf,
		initSeed:  seed,
		seedmaker: newSeedMaker(seed),
		sBuf:      make([]*Session, 1, capPrepare),
		fresh:     make([]bool, 1, capPrepare),
		rBuf:      make([]*recorder.GameRecorder, 0, capPrepare),
	}
	ss, err := newSessionWithSeed(gs, cf, seed)
	if err != nil {
		return nil, err
	}
	s.sBuf[0] = ss
	s.fresh[0] = true
	return s, nil
}

func (s *Simulator) Seed() int64 {
	return s.initSeed
}

// Sim 單線模擬：以一個 Session 連續下 games 局並回傳統計結果與用時
func (s *Simulator) Sim(policyName string, games int, showpb bool) (*stats.Report, time.Duration, error) {
	return s.SimMP(policyName, games, 1, showpb)
}

// SimMP 平行執行 mp 個 Session，總計 games 局平均分配給各 worker，合併統計結果後回傳統計結果與用時
func (s *Simulator) SimMP(policyName string, games int, mp int, showpb bool) (*stats.Report, time.Duration, error) {
	return s.SimMPContext(context.Background(), policyName, games, mp, showpb)
}

// SimMPContext 同 SimMP；每局開始前檢查 ctx，取消或逾時即停止所有 worker 並回傳 ctx 錯誤。
func (s *Simulator) SimMPContext(ctx context.Context, policyName string, games int, mp int, showpb bool) (*stats.Report, time.Duration, error) {
	defer s.reset()
	if mp <= 0 {
		return nil, 0, errs.NewWarn("workers must > 0")
	}
	if games < 1 {
		return nil, 0, errs.NewWarn("games must > 0")
	}
	if !s.policies.IsExist(policyName) {
		return nil, 0, policy.ErrUnknownPolicy.With(policyName)
	}
	mp = min(mp, games)

	// 準備並行 Session
	for len(s.sBuf) < mp {
		ss, err := newSessionWithSeed(s.gs, s.cf, s.seedmaker.next())
		if err != nil {
			return nil, 0, err
		}
		s.sBuf = append(s.sBuf, ss)
		s.fresh = append(s.fresh, true)
	}
	pols := make([]policy.Policy, mp)
	for i := 0; i < mp; i++ {
		p, err := s.policies.Build(policyName)
		if err != nil {
			return nil, 0, err
		}
		pols[i] = p
		s.rBuf = append(s.rBuf, recorder.NewGameRecorder(s.gs, policyName))
	}

	var (
		wg       sync.WaitGroup
		errOnce  sync.Once
		firstErr error
	)
	wg.Add(mp)
	bar := pb.StartNew(games)
	if !showpb {
		bar.SetWriter(io.Discard)
	}
	for i := 0; i < mp; i++ {
		n := games / mp
		if i < games%mp {
			n++
		}
		go func(i, n int) {
			defer wg.Done()
			if err := play(ctx, s.sBuf[i], pols[i], s.rBuf[i], n, !s.fresh[i], bar); err != nil {
				errOnce.Do(func() { firstErr = err })
			}
		}(i, n)
	}
	wg.Wait()
	used := time.Since(bar.StartTime())
	bar.Finish()
	for i := 0; i < mp; i++ {
		s.fresh[i] = false
	}

	if firstErr != nil {
		return nil, used, firstErr
	}
	rec, err := recorder.MergeGameRecorder(s.rBuf)
	if err != nil {
		return nil, used, err
	}
	return rec.Done(), used, nil
}

// play 在同一個 Session 上連續下 n 局；盤面未被下過時第一局直接使用，之後每局 Restart。
func play(ctx context.Context, ss *Session, p policy.Policy, rec *recorder.GameRecorder, n int, restartFirst bool, bar *pb.ProgressBar) error {
	for g := 0; g < n; g++ {
		if err := ctx.Err(); err != nil {
			return errs.Wrap(err, "simulation canceled")
		}
		if g > 0 || restartFirst {
			if err := ss.Restart(); err != nil {
				return err
			}
		}
		if err := PlayOut(ss, p); err != nil {
			return err
		}
		rec.Record(ss.Result())
		bar.Increment()
	}
	return nil
}

// PlayOut 以策略把目前這盤下到結束。
func PlayOut(ss *Session, p policy.Policy) error {
	for !ss.GameOver() {
		groups := ss.EliminableGroups()
		if len(groups) == 0 {
			return nil
		}
		g := p.Choose(groups, ss.core)
		if _, err := ss.SelectSeed(g.Seed()); err != nil {
			return err
		}
		if _, err := ss.ConfirmElimination(); err != nil {
			return err
		}
	}
	return nil
}

func (s *Simulator) reset() {
	s.rBuf = s.rBuf[:0]
}

const mask63 = uint64(1<<63) - 1

type seedMaker struct {
	state atomic.Uint64 // always in [0, 2^63)
}

func newSeedMaker(seed int64) *seedMaker {
	s := &seedMaker{}
	s.state.Store(uint64(seed) & mask63)
	return s
}

// state 走全週期（不重複），再用可逆 mix63 打散
//
// 可能被多個 goroutine 同時呼叫，state 以 CAS 迴圈推進，每次呼叫取得唯一的下一個 state。
func (s *seedMaker) next() int64 {
	for {
		old := s.state.Load()                                            // always masked
		next := (old*6364136223846793005 + 1442695040888963407) & mask63 // full-period LCG mod 2^63
		if s.state.CompareAndSwap(old, next) {
			return int64(mix63(next)) // 一定非負
		}
	}
}

// mix63：只用「可逆」的 bit 操作 + 乘奇數（mod 2^63）
func mix63(x uint64) uint64 {
	x &= mask63
	x ^= x >> 30
	x = (x * 0xBF58476D1CE4E5B9) & mask63 // 乘奇數 ⇒ mod 2^63 可逆
	x ^= x >> 27
	x = (x * 0x94D049BB133111EB) & mask63
	x ^= x >> 31
	return x & mask63
}
