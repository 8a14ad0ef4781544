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

package v1

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/zintix-labs/popstar"
	"github.com/zintix-labs/popstar/dto"
	"github.com/zintix-labs/popstar/errs"
	"github.com/zintix-labs/popstar/sdk/board"
	"github.com/zintix-labs/popstar/server/netsvr"
)

const (
	wsIdle         = 2 * time.Minute // 超過沒有任何指令即斷線
	wsWriteTimeout = 10 * time.Second
	wsMaxMessage   = 4 << 10
)

var errUnknownOp = errs.NewCode(errs.Warn, "unknown_op", "unknown websocket op")

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// WS 互動通道：一條連線綁定一局，每個指令回一個 WSReply。
//
//	{"op":"select","row":0,"col":1}
//	{"op":"confirm"} / {"op":"cancel"} / {"op":"restart"} / {"op":"hint"} / {"op":"view"}
//
// 連線建立後先送出一次 view；局被移除（刪除、閒置回收、panic）時回錯誤並關閉連線。
func (sh *SessionHandler) WS(w http.ResponseWriter, r *http.Request) {
	id := netsvr.Param(r, "id")
	if _, err := sh.rt.Get(id); err != nil {
		sh.fail(w, "ws session lookup failed", err)
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade 已自行寫回錯誤
		sh.log.Warn("ws upgrade failed", "sid", id, "err", err)
		return
	}
	defer conn.Close()
	conn.SetReadLimit(wsMaxMessage)
	sh.log.Info("ws connected", "sid", id)

	if !sh.wsWrite(conn, sh.wsHandle(r.Context(), id, dto.WSCommand{Op: "view"})) {
		return
	}
	for {
		_ = conn.SetReadDeadline(time.Now().Add(wsIdle))
		cmd := dto.WSCommand{}
		if err := conn.ReadJSON(&cmd); err != nil {
			var ce *websocket.CloseError
			if !errors.As(err, &ce) {
				sh.log.Debug("ws read stopped", "sid", id, "err", err)
			}
			return
		}
		reply := sh.wsHandle(r.Context(), id, cmd)
		if !sh.wsWrite(conn, reply) {
			return
		}
		if !reply.OK && (reply.Code == popstar.ErrSessionNotFound.Code || reply.Code == popstar.ErrRuntimeClosed.Code) {
			return
		}
	}
}

func (sh *SessionHandler) wsWrite(conn *websocket.Conn, reply dto.WSReply) bool {
	_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	if err := conn.WriteJSON(reply); err != nil {
		sh.log.Debug("ws write failed", "err", err)
		return false
	}
	return true
}

func (sh *SessionHandler) wsHandle(parent context.Context, id string, cmd dto.WSCommand) dto.WSReply {
	ctx, cancel := context.WithTimeout(parent, reqTimeout)
	defer cancel()
	reply := dto.WSReply{Op: cmd.Op}
	err := sh.rt.Exec(ctx, id, func(s *popstar.Session) error {
		names := s.Setting().KindNames()
		switch cmd.Op {
		case "select":
			g, err := s.SelectSeed(board.Coord{Row: cmd.Row, Col: cmd.Col})
			if err != nil {
				return err
			}
			reply.Selection = dto.NewSelectionDTO(g, s.Points(g), names)
		case "confirm":
			st, err := s.ConfirmElimination()
			if err != nil {
				return err
			}
			step := dto.NewStepDTO(st, names)
			reply.Step = &step
		case "cancel":
			s.CancelSelection()
		case "restart":
			if err := s.Restart(); err != nil {
				return err
			}
		case "hint":
			if g, ok := s.Hint(); ok {
				reply.Selection = dto.NewSelectionDTO(g, s.Points(g), names)
			}
		case "view":
		default:
			return errUnknownOp.With(cmd.Op)
		}
		v := s.View(id)
		reply.View = &v
		return nil
	})
	if err != nil {
		sh.log.Debug("ws command failed", "sid", id, "op", cmd.Op, "err", err)
		reply.Error = err.Error()
		reply.Code = errs.CodeOf(err)
		return reply
	}
	reply.OK = true
	return reply
}
