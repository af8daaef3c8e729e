package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

const DefaultRole = "admin"

// Account: users.json の1要素。password は bcrypt ハッシュ
type Account struct {
	Username     string `json:"username"`
	PasswordHash string `json:"password"`
	Role         string `json:"role,omitempty"`
	Disabled     bool   `json:"disabled,omitempty"`
}

type AccountStore interface {
	GetByUsername(ctx context.Context, username string) (*Account, error)
}

// StaticStore は起動時に読み込んだ固定のユーザー一覧
type StaticStore struct {
	byName map[string]Account
}

func NewStaticStore(accounts []Account) (*StaticStore, error) {
	s := &StaticStore{byName: make(map[string]Account, len(accounts))}
	for i, a := range accounts {
		a.Username = strings.TrimSpace(a.Username)
		if a.Username == "" {
			return nil, fmt.Errorf("users[%d]: username is empty", i)
		}
		if a.PasswordHash == "" {
			return nil, fmt.Errorf("users[%d] %s: password hash is empty", i, a.Username)
		}
		if _, dup := s.byName[a.Username]; dup {
			return nil, fmt.Errorf("users[%d]: duplicate username %s", i, a.Username)
		}
		if a.Role == "" {
			a.Role = DefaultRole
		}
		s.byName[a.Username] = a
	}
	return s, nil
}

// LoadUsers は users_file（JSON 配列）を読む
func LoadUsers(path string) (*StaticStore, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read users file: %w", err)
	}
	var accounts []Account
	if err := json.Unmarshal(buf, &accounts); err != nil {
		return nil, fmt.Errorf("parse users file %s: %w", path, err)
	}
	return NewStaticStore(accounts)
}

func (s *StaticStore) Len() int { return len(s.byName) }

// 見つからない場合は (nil, nil)
func (s *StaticStore) GetByUsername(_ context.Context, username string) (*Account, error) {
	a, ok := s.byName[username]
	if !ok {
		return nil, nil
	}
	return &a, nil
}
