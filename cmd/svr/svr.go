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
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/zintix-labs/popstar/demo"
	"github.com/zintix-labs/popstar/server"
	"github.com/zintix-labs/popstar/server/logger"
	"github.com/zintix-labs/popstar/server/netsvr"
	"github.com/zintix-labs/popstar/server/svrcfg"
)

// 啟動內建示範遊戲的 HTTP server。
//
// 設定優先順序：flag > 環境變數（可寫在 .env）> 預設值
//
//	POPSTAR_ADDR=:5808
//	POPSTAR_LOG_MODE=dev|prod|silence
//	POPSTAR_MAX_SESSIONS=10000
//	POPSTAR_IDLE_TTL=30m
//	POPSTAR_SIM_MAX_GAMES=100000
func main() {
	_ = godotenv.Load()
	cfg, err := loadConfigFromFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	server.Run(cfg)
}

type config struct {
	Addr        string
	LogMode     string
	MaxSessions int
	IdleTTL     time.Duration
	SimMaxGames int
}

func loadConfigFromFlags(args []string) (*svrcfg.SvrCfg, error) {
	cfg, err := configFromEnv()
	if err != nil {
		return nil, err
	}
	fs := flag.NewFlagSet("svr", flag.ContinueOnError)
	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "listen address")
	fs.StringVar(&cfg.LogMode, "log-mode", cfg.LogMode, "log mode: dev|prod|silence")
	fs.IntVar(&cfg.MaxSessions, "max-sessions", cfg.MaxSessions, "max concurrent sessions")
	fs.DurationVar(&cfg.IdleTTL, "idle-ttl", cfg.IdleTTL, "evict sessions idle longer than this")
	fs.IntVar(&cfg.SimMaxGames, "sim-max-games", cfg.SimMaxGames, "max games per /v1/sim request")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	mode, err := logger.ParseMode(cfg.LogMode)
	if err != nil {
		return nil, err
	}
	log, _ := logger.NewAsync(4096, mode)

	lab, err := demo.NewLab()
	if err != nil {
		return nil, err
	}
	sCfg := &svrcfg.SvrCfg{
		Log:         log,
		Addr:        cfg.Addr,
		MaxSessions: cfg.MaxSessions,
		IdleTTL:     cfg.IdleTTL,
		SimMaxGames: cfg.SimMaxGames,
		Lab:         lab,
	}
	return sCfg, nil
}

func configFromEnv() (*config, error) {
	cfg := &config{
		Addr:        envOr("POPSTAR_ADDR", netsvr.DefaultAddr),
		LogMode:     envOr("POPSTAR_LOG_MODE", "dev"),
		SimMaxGames: svrcfg.DefaultSimMaxGames,
	}
	if v := os.Getenv("POPSTAR_MAX_SESSIONS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("POPSTAR_MAX_SESSIONS: %w", err)
		}
		cfg.MaxSessions = n
	}
	if v := os.Getenv("POPSTAR_IDLE_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("POPSTAR_IDLE_TTL: %w", err)
		}
		cfg.IdleTTL = d
	}
	if v := os.Getenv("POPSTAR_SIM_MAX_GAMES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("POPSTAR_SIM_MAX_GAMES: %w", err)
		}
		cfg.SimMaxGames = n
	}
	return cfg, nil
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
