package refdata

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

var ErrNoHeader = errors.New("sheet has no header row")

// Load はワークブックの先頭シートを読み込んで Snapshot を作る。
// ファイルが無い・読めない場合はエラー（呼び出し側で起動を止める）
func Load(path string, opts Options) (*Snapshot, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook %s: %w", path, err)
	}
	defer f.Close()

	sheet, rows, err := readFirstSheet(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	snap := NewSnapshot(rows, opts)
	snap.source = path
	snap.sheet = sheet
	snap.loadedAt = time.Now()
	return snap, nil
}

// Preview はアップロードされたワークブックを同じ規則で読むだけ。キャッシュは触らない
func Preview(r io.Reader) (string, []Row, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return "", nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()
	return readFirstSheet(f)
}

func readFirstSheet(f *excelize.File) (string, []Row, error) {
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return "", nil, errors.New("workbook has no sheets")
	}
	sheet := sheets[0]
	raw, err := f.GetRows(sheet)
	if err != nil {
		return "", nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	rows, err := parseRows(raw)
	if err != nil {
		return "", nil, fmt.Errorf("sheet %q: %w", sheet, err)
	}
	return sheet, rows, nil
}

// parseRows: 1行目がヘッダ。以降の空でない行を Row にする
func parseRows(raw [][]string) ([]Row, error) {
	if len(raw) == 0 {
		return nil, ErrNoHeader
	}
	headers := make([]string, len(raw[0]))
	named := 0
	for i, h := range raw[0] {
		headers[i] = strings.TrimSpace(h)
		if headers[i] != "" {
			named++
		}
	}
	if named == 0 {
		return nil, ErrNoHeader
	}

	rows := make([]Row, 0, len(raw)-1)
	for _, cells := range raw[1:] {
		row := make(Row, named)
		blank := true
		for i, h := range headers {
			if h == "" {
				continue
			}
			v := ""
			if i < len(cells) {
				v = strings.TrimSpace(cells[i])
			}
			if v != "" {
				blank = false
			}
			// 同名ヘッダは先勝ち
			if prev, dup := row[h]; dup && prev != "" {
				continue
			}
			row[h] = v
		}
		if blank {
			continue
		}
		rows = append(rows, row)
	}
	return rows, nil
}
