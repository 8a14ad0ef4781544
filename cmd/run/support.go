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

package main

import (
	"flag"
	"log"
	"os"
	"runtime"
	"strconv"

	"github.com/zintix-labs/popstar"
	"github.com/zintix-labs/popstar/demo"
	"github.com/zintix-labs/popstar/sdk/core"
	"github.com/zintix-labs/popstar/sdk/perf"
	"github.com/zintix-labs/popstar/spec"
	"github.com/zintix-labs/popstar/stats"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var cfg *config = new(config)

type config struct {
	game      string // 遊戲 id 或名稱
	policy    string
	worker    int
	games     int
	seed      int64
	output    string // table | json | yaml
	cfgFile   string // 以外部 yaml 設定檔模擬
	pprofmode perf.Mode
}

func bindVar() {
	var pmode string
	flag.StringVar(&cfg.game, "game", "classic", "target game id or name")
	flag.StringVar(&cfg.policy, "policy", "greedy", "play policy: random|greedy|smallest")
	flag.IntVar(&cfg.worker, "worker", 1, "number of workers")
	flag.IntVar(&cfg.games, "games", 100000, "total games to play")
	flag.Int64Var(&cfg.seed, "seed", -1, "int64 seed for random number generator")
	flag.StringVar(&cfg.output, "o", "table", "output: table|json|yaml")
	flag.StringVar(&cfg.cfgFile, "cfg", "", "simulate with an external yaml game setting (must match a registered game)")
	flag.StringVar(&pmode, "p", "", "pprof: '', cpu, heap, allocs")

	flag.Parse()

	m, err := perf.ParseMode(pmode)
	if err != nil {
		log.Fatal(err)
	}
	cfg.pprofmode = m

	// given seed illeagel -> crypto seed
	if cfg.seed < 0 {
		seed, err := core.NewSeed()
		if err != nil {
			log.Fatal(err)
		}
		cfg.seed = seed
	}
}

// 這裡解析並執行模擬器
func executeSimulator() {
	cfg.valid() // 基本檢查

	lab, err := demo.NewLab()
	if err != nil {
		log.Fatal(err)
	}
	s, err := cfg.simulator(lab)
	if err != nil {
		log.Fatal(err)
	}
	// 至此確保可執行
	green := "\033[1;32m"
	reset := "\033[0m"
	p := message.NewPrinter(language.English)
	showpb := cfg.output == "table"
	if showpb {
		p.Printf("%s[WORKERS:%d] [GAME:%s] [POLICY:%s] [GAMES:%d] [SEED:%d]%s\n",
			green, cfg.worker, s.GameName, cfg.policy, cfg.games, s.Seed(), reset)
	}

	st, used, err := s.SimMP(cfg.policy, cfg.games, cfg.worker, showpb)
	if err != nil {
		log.Fatal(err)
	}
	if showpb {
		st.StdOut(used)
		return
	}
	rd, _ := stats.RenderByName(cfg.output)
	if err := st.WriteWith(os.Stdout, rd); err != nil {
		log.Fatal(err)
	}
}

func (cfg *config) simulator(lab *popstar.Lab) (*popstar.Simulator, error) {
	if cfg.cfgFile != "" {
		raw, err := os.ReadFile(cfg.cfgFile)
		if err != nil {
			return nil, err
		}
		return lab.NewSimulatorByYAML(raw, cfg.seed)
	}
	var (
		id   spec.GID
		name string
	)
	if u, err := strconv.ParseUint(cfg.game, 10, 0); err == nil {
		id = spec.GID(u)
	} else {
		name = cfg.game
	}
	gid, err := lab.ResolveGID(id, name)
	if err != nil {
		return nil, err
	}
	return lab.NewSimulatorWithSeed(gid, cfg.seed)
}

func (cfg *config) valid() {
	p := message.NewPrinter(language.English)

	// 工作協程檢查(併發數)
	if cfg.worker < 1 {
		log.Fatal("value err : workers must > 0")
	}
	if cfg.worker > runtime.NumCPU() {
		p.Printf("too many workers: %d resized to %d\n", cfg.worker, runtime.NumCPU())
		cfg.worker = runtime.NumCPU()
	}

	// 局數檢查
	if cfg.games < 1 {
		log.Fatal("value err : games must > 0")
	}

	if cfg.output != "table" {
		if _, ok := stats.RenderByName(cfg.output); !ok {
			log.Fatalf("value err : unknown output %q (table|json|yaml)", cfg.output)
		}
	}
}
