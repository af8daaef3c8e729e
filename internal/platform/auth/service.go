package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"MediaLoan-backend/internal/platform/logger"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

type Service struct {
	store    AccountStore
	secret   []byte
	ttl      time.Duration
	throttle Throttle
	now      func() time.Time
	log      *zap.Logger
}

func NewService(store AccountStore, secret []byte, ttl time.Duration, log *zap.Logger) *Service {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Service{store: store, secret: secret, ttl: ttl, now: time.Now, log: logger.OrNop(log)}
}

func (s *Service) Secret() []byte { return s.secret }

// UseThrottle: nil なら回数制限なし
func (s *Service) UseThrottle(t Throttle) { s.throttle = t }

// Login: 成功時は HS256 の JWT を返す。ユーザー不在とパスワード違いは区別しない
func (s *Service) Login(ctx context.Context, username, password string) (string, error) {
	if s.throttle == nil {
		return s.login(ctx, username, password)
	}

	// Redis が落ちていてもログイン自体は止めない
	blocked, err := s.throttle.Blocked(ctx, username)
	if err != nil {
		s.log.Warn("login throttle unavailable", zap.Error(err))
	} else if blocked {
		s.log.Warn("login blocked", zap.String("username", username))
		return "", ErrTooManyAttempts
	}

	token, err := s.login(ctx, username, password)
	switch {
	case errors.Is(err, ErrInvalidCredentials):
		if ferr := s.throttle.Failed(ctx, username); ferr != nil {
			s.log.Warn("login throttle unavailable", zap.Error(ferr))
		}
	case err == nil:
		if rerr := s.throttle.Reset(ctx, username); rerr != nil {
			s.log.Warn("login throttle unavailable", zap.Error(rerr))
		}
	}
	return token, err
}

func (s *Service) login(ctx context.Context, username, password string) (string, error) {
	acct, err := s.store.GetByUsername(ctx, username)
	if err != nil {
		return "", fmt.Errorf("lookup user: %w", err)
	}
	if acct == nil {
		// 応答時間で存在が分からないようにダミー比較しておく
		_ = bcrypt.CompareHashAndPassword(dummyHash(), []byte(password))
		s.log.Warn("login failed", zap.String("username", username), zap.String("reason", "unknown user"))
		return "", ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(acct.PasswordHash), []byte(password)); err != nil {
		s.log.Warn("login failed", zap.String("username", username), zap.String("reason", "password mismatch"))
		return "", ErrInvalidCredentials
	}
	if acct.Disabled {
		s.log.Warn("login failed", zap.String("username", username), zap.String("reason", "disabled"))
		return "", ErrInvalidCredentials
	}

	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  acct.Username,
		"role": acct.Role,
		"iat":  now.Unix(),
		"exp":  now.Add(s.ttl).Unix(),
	})
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	s.log.Info("login succeeded", zap.String("username", username))
	return signed, nil
}

// HashPassword / CheckPassword は users.json の保守用（cmd/hashpw）
func HashPassword(password string, cost int) (string, error) {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	h, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

var (
	dummyOnce sync.Once
	dummy     []byte
)

func dummyHash() []byte {
	dummyOnce.Do(func() {
		dummy, _ = bcrypt.GenerateFromPassword([]byte("dummy-password"), bcrypt.DefaultCost)
	})
	return dummy
}
