// Package refdata は資産台帳（Excel）の参照データ。起動時に1回だけ読み、以後は読み取り専用
package refdata

import (
	"strings"

	"golang.org/x/text/width"

	"MediaLoan-backend/internal/platform/db"
)

// Row: ヘッダ名 → セル文字列。全ヘッダがキーとして存在する（空セルは ""）
type Row map[string]string

// Options: どの列を何として扱うか
type Options struct {
	Columns     db.Columns
	USBCategory string
}

func OptionsFromConfig(c db.DataConfig) Options {
	return Options{Columns: c.Columns, USBCategory: c.USBCategory}
}

// Contacts は分類ごとの保管人・窓口・資産名（重複なし、出現順）
type Contacts struct {
	Custodians     []string `json:"custodians"`
	ContactPersons []string `json:"contactPersons"`
	AssetNames     []string `json:"assetNames"`
}

type DataByUnitsRequest struct {
	Units []string `json:"units"`
}

type UploadPreview struct {
	Message string `json:"message"`
	Sheet   string `json:"sheet"`
	Count   int    `json:"count"`
	Rows    []Row  `json:"rows"`
}

// 全角/半角ゆれと前後空白を吸収した比較キー
func matchKey(s string) string {
	return width.Fold.String(strings.TrimSpace(s))
}
