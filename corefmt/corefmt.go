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

// Package corefmt 盤面與二進位資料的文字/傳輸格式。
//
//   - 分享碼 (share code)：base64url( uvarint(len) || size || kinds... )，可放在 URL。
//   - 盤面文字：每列一個字串，種類以 A..P 表示，'.' 為空格，方便測試與除錯。
//   - RenderBoard：以種類名稱排版的表格 (支援全形字元寬度)。
package corefmt

import (
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/zintix-labs/popstar/errs"
	"github.com/zintix-labs/popstar/sdk/board"
)

const (
	emptyRune  = '.'
	firstRune  = 'A'
	maxLetters = 26
)

var ErrBadCode = errs.NewCode(errs.Warn, "bad_layout_code", "invalid board layout code")

func EncodeBase64URL(b []byte) string {
	return base64.RawURLEncoding.EncodeToString(b)
}

func DecodeBase64URL(s string) ([]byte, error) {
	b, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return nil, errs.Wrap(ErrBadCode, "decode base64url failed: "+err.Error())
	}
	return b, nil
}

// EncodeBlobFrame frame := uvarint(len(payload)) || payload
func EncodeBlobFrame(payload []byte) []byte {
	var hdr [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(hdr[:], uint64(len(payload)))
	out := make([]byte, 0, n+len(payload))
	out = append(out, hdr[:n]...)
	return append(out, payload...)
}

// DecodeBlobFrame 解開 EncodeBlobFrame 的結果，回傳 payload 副本。
func DecodeBlobFrame(frame []byte) ([]byte, error) {
	n, size := binary.Uvarint(frame)
	if size <= 0 {
		return nil, ErrBadCode.With("invalid varint length")
	}
	if uint64(len(frame)-size) < n {
		return nil, ErrBadCode.With("truncated payload")
	}
	out := make([]byte, n)
	copy(out, frame[size:size+int(n)])
	return out, nil
}

// EncodeLayout 盤面種類矩陣 -> 分享碼
func EncodeLayout(kinds [][]board.Kind) string {
	n := len(kinds)
	payload := make([]byte, 0, 1+n*n)
	payload = append(payload, byte(n))
	for _, row := range kinds {
		for _, k := range row {
			payload = append(payload, byte(k))
		}
	}
	return EncodeBase64URL(EncodeBlobFrame(payload))
}

// DecodeLayout 分享碼 -> 盤面種類矩陣，只檢查格式，不檢查種類是否存在於設定中。
func DecodeLayout(code string) ([][]board.Kind, error) {
	raw, err := DecodeBase64URL(strings.TrimSpace(code))
	if err != nil {
		return nil, err
	}
	payload, err := DecodeBlobFrame(raw)
	if err != nil {
		return nil, err
	}
	if len(payload) == 0 {
		return nil, ErrBadCode.With("empty payload")
	}
	n := int(payload[0])
	if n == 0 || len(payload) != 1+n*n {
		return nil, ErrBadCode.Withf("size=%d payload=%d", n, len(payload))
	}
	out := make([][]board.Kind, n)
	for r := range out {
		out[r] = make([]board.Kind, n)
		for c := range out[r] {
			out[r][c] = board.Kind(payload[1+r*n+c])
		}
	}
	return out, nil
}

// EncodeText 每列一個字串，Kind(1)='A'。
func EncodeText(kinds [][]board.Kind) []string {
	out := make([]string, len(kinds))
	for r, row := range kinds {
		var sb strings.Builder
		for _, k := range row {
			if k == board.None {
				sb.WriteByte(emptyRune)
			} else {
				sb.WriteByte(byte(firstRune + int(k) - 1))
			}
		}
		out[r] = sb.String()
	}
	return out
}

// DecodeText EncodeText 的反向；列長度不一致或字元不合法時回傳錯誤。
func DecodeText(rows []string) ([][]board.Kind, error) {
	out := make([][]board.Kind, len(rows))
	for r, line := range rows {
		line = strings.TrimSpace(line)
		if len(line) != len(rows) {
			return nil, ErrBadCode.Withf("row %d has %d cells, want %d", r, len(line), len(rows))
		}
		out[r] = make([]board.Kind, len(line))
		for c := 0; c < len(line); c++ {
			ch := line[c]
			switch {
			case ch == emptyRune:
			case ch >= firstRune && ch < firstRune+maxLetters:
				out[r][c] = board.Kind(ch-firstRune) + 1
			default:
				return nil, ErrBadCode.Withf("unexpected %q at (%d,%d)", ch, r, c)
			}
		}
	}
	return out, nil
}

// RenderBoard 以種類名稱印出盤面，row 0 在最上方。
// names[i] 對應 Kind(i+1)，缺名稱時使用字母。
func RenderBoard(w io.Writer, kinds [][]board.Kind, names []string) error {
	label := func(k board.Kind) string {
		if k == board.None {
			return string(emptyRune)
		}
		if int(k) <= len(names) && names[k-1] != "" {
			return names[k-1]
		}
		return string(rune(firstRune + int(k) - 1))
	}
	width := 1
	for _, row := range kinds {
		for _, k := range row {
			width = max(width, runewidth.StringWidth(label(k)))
		}
	}
	idxW := len(fmt.Sprint(max(len(kinds)-1, 0)))
	for r, row := range kinds {
		cells := make([]string, len(row))
		for c, k := range row {
			cells[c] = runewidth.FillRight(label(k), width)
		}
		if _, err := fmt.Fprintf(w, "%*d | %s\n", idxW, r, strings.Join(cells, " ")); err != nil {
			return errs.Wrap(err, "render board failed")
		}
	}
	return nil
}
