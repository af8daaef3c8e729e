package refdata

import (
	"maps"
	"strings"
	"time"
)

// Snapshot は読み込み済みの行の不変コピー。全メソッドは純粋関数
type Snapshot struct {
	rows     []Row
	opts     Options
	source   string
	sheet    string
	loadedAt time.Time
}

func NewSnapshot(rows []Row, opts Options) *Snapshot {
	cp := make([]Row, len(rows))
	for i, r := range rows {
		cp[i] = maps.Clone(r)
	}
	return &Snapshot{rows: cp, opts: opts}
}

func (s *Snapshot) Len() int            { return len(s.rows) }
func (s *Snapshot) Source() string      { return s.source }
func (s *Snapshot) Sheet() string       { return s.sheet }
func (s *Snapshot) LoadedAt() time.Time { return s.loadedAt }

// Rows は全行。返す Row も複製なので呼び出し側で書き換えてよい
func (s *Snapshot) Rows() []Row {
	return s.filter(func(Row) bool { return true })
}

// Units: 所属単位の重複なし一覧（出現順）
func (s *Snapshot) Units() []string {
	return distinct(s.rows, s.opts.Columns.Unit)
}

// ByUnit: unit が空なら全行
func (s *Snapshot) ByUnit(unit string) []Row {
	want := matchKey(unit)
	if want == "" {
		return s.Rows()
	}
	col := s.opts.Columns.Unit
	return s.filter(func(r Row) bool { return matchKey(r[col]) == want })
}

func (s *Snapshot) ByUnits(units []string) []Row {
	set := make(map[string]struct{}, len(units))
	for _, u := range units {
		if k := matchKey(u); k != "" {
			set[k] = struct{}{}
		}
	}
	col := s.opts.Columns.Unit
	return s.filter(func(r Row) bool {
		k := matchKey(r[col])
		if k == "" {
			return false
		}
		_, ok := set[k]
		return ok
	})
}

func (s *Snapshot) ByCategory(category string) []Row {
	want := matchKey(category)
	col := s.opts.Columns.Category
	return s.filter(func(r Row) bool { return want != "" && matchKey(r[col]) == want })
}

func (s *Snapshot) Contacts(category string) Contacts {
	rows := s.ByCategory(category)
	c := s.opts.Columns
	return Contacts{
		Custodians:     distinct(rows, c.Custodian),
		ContactPersons: distinct(rows, c.ContactPerson),
		AssetNames:     distinct(rows, c.AssetName),
	}
}

// USBContacts は隨身碟カテゴリの連絡先
func (s *Snapshot) USBContacts() Contacts {
	return s.Contacts(s.opts.USBCategory)
}

// HasAsset: 財産編号が台帳に存在するか
func (s *Snapshot) HasAsset(number string) bool {
	want := matchKey(number)
	if want == "" {
		return false
	}
	col := s.opts.Columns.AssetNumber
	for _, r := range s.rows {
		if matchKey(r[col]) == want {
			return true
		}
	}
	return false
}

func (s *Snapshot) filter(pred func(Row) bool) []Row {
	out := make([]Row, 0, len(s.rows))
	for _, r := range s.rows {
		if pred(r) {
			out = append(out, maps.Clone(r))
		}
	}
	return out
}

func distinct(rows []Row, col string) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, r := range rows {
		v := strings.TrimSpace(r[col])
		k := matchKey(v)
		if k == "" {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, v)
	}
	return out
}
