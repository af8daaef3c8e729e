package loans

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	ulid "github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"MediaLoan-backend/internal/platform/apperr"
	"MediaLoan-backend/internal/platform/logger"
	"MediaLoan-backend/internal/recordstore"
)

// -------------- Clock & ID --------------

type Clock interface{ Now() time.Time }
type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

type IDGen interface{ NewULID(t time.Time) string }

type ulidGen struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

func newULIDGen() *ulidGen { return &ulidGen{entropy: ulid.Monotonic(rand.Reader, 0)} }

func (g *ulidGen) NewULID(t time.Time) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(t), g.entropy).String()
}

// AssetLookup: 台帳に財産編號があるか（refdata.Snapshot が満たす）
type AssetLookup interface {
	HasAsset(number string) bool
}

// -------------- Service --------------

type Service struct {
	store  recordstore.Store[Loan]
	assets AssetLookup
	clock  Clock
	id     IDGen
	log    *zap.Logger
}

func NewService(store recordstore.Store[Loan], assets AssetLookup, log *zap.Logger) *Service {
	return &Service{
		store:  store,
		assets: assets,
		clock:  realClock{},
		id:     newULIDGen(),
		log:    logger.OrNop(log).With(zap.String("component", "loans")),
	}
}

// Borrow: 1リクエストで N 点 → N 件の独立した貸出記録。
// どれか1点でも貸出中なら全体を 409 にする（部分的には作らない）
func (s *Service) Borrow(ctx context.Context, in BorrowRequest, sourceIP string) ([]Loan, error) {
	numbers, err := normalizeNumbers(in.MediaPropertyNumbers)
	if err != nil {
		return nil, err
	}
	borrower := strings.TrimSpace(in.Borrower)
	if borrower == "" {
		return nil, apperr.Invalid("borrower is required")
	}

	now := s.clock.Now()
	loanDate := strings.TrimSpace(in.LoanDate)
	if loanDate == "" {
		loanDate = now.Format(dateLayout)
	}
	ld, err := time.Parse(dateLayout, loanDate)
	if err != nil {
		return nil, apperr.Invalid("loanDate must be YYYY-MM-DD")
	}
	expected := strings.TrimSpace(in.ExpectedReturnDate)
	if expected != "" {
		ed, err := time.Parse(dateLayout, expected)
		if err != nil {
			return nil, apperr.Invalid("expectedReturnDate must be YYYY-MM-DD")
		}
		if ed.Before(ld) {
			return nil, apperr.Invalid("expectedReturnDate must not be before loanDate")
		}
	}

	if s.assets != nil {
		for _, n := range numbers {
			if !s.assets.HasAsset(n) {
				s.log.Warn("media property number not in asset ledger", zap.String("media_property_number", n))
			}
		}
	}

	created := make([]Loan, 0, len(numbers))
	for _, n := range numbers {
		created = append(created, Loan{
			LoanID:              s.id.NewULID(now),
			MediaPropertyNumber: n,
			Borrower:            borrower,
			Reason:              strings.TrimSpace(in.Reason),
			Unit:                strings.TrimSpace(in.Unit),
			LoanDate:            loanDate,
			ExpectedReturnDate:  expected,
			Status:              StatusBorrowed,
			SourceIP:            sourceIP,
			CreatedAt:           now,
			UpdatedAt:           now,
		})
	}

	err = s.store.Update(ctx, func(all []Loan) ([]Loan, error) {
		open := make(map[string]struct{})
		for _, l := range all {
			if l.Status == StatusBorrowed {
				open[l.MediaPropertyNumber] = struct{}{}
			}
		}
		var busy []string
		for _, n := range numbers {
			if _, ok := open[n]; ok {
				busy = append(busy, n)
			}
		}
		if len(busy) > 0 {
			return nil, apperr.Conflict("already on loan: " + strings.Join(busy, ", "))
		}
		return append(all, created...), nil
	})
	if err != nil {
		if apperr.IsOperational(err) {
			return nil, err
		}
		return nil, apperr.Wrap(apperr.CodeInternal, "failed to save loans", err)
	}
	s.log.Info("loans created",
		zap.String("borrower", borrower),
		zap.Strings("media_property_numbers", numbers),
	)
	return created, nil
}

func normalizeNumbers(in []string) ([]string, error) {
	if len(in) == 0 {
		return nil, apperr.Invalid("mediaPropertyNumbers must be a non-empty array")
	}
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for i, n := range in {
		n = strings.TrimSpace(n)
		if n == "" {
			return nil, apperr.Invalid(fmt.Sprintf("mediaPropertyNumbers[%d] is empty", i))
		}
		if _, dup := seen[n]; dup {
			return nil, apperr.Invalid("duplicate media property number: " + n)
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out, nil
}

func (s *Service) List(ctx context.Context, f Filter) ([]Loan, error) {
	if f.Status != "" && f.Status != StatusBorrowed && f.Status != StatusReturned {
		return nil, apperr.Invalid("status must be borrowed or returned")
	}
	num, unit := strings.TrimSpace(f.MediaPropertyNumber), strings.TrimSpace(f.Unit)
	out, err := recordstore.Filter(ctx, s.store, func(l Loan) bool {
		if num != "" && l.MediaPropertyNumber != num {
			return false
		}
		if unit != "" && l.Unit != unit {
			return false
		}
		return f.Status == "" || l.Status == f.Status
	})
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, "failed to read loans", err)
	}
	return out, nil
}

// Return: borrowed → returned は1回だけ
func (s *Service) Return(ctx context.Context, loanID string) (Loan, error) {
	var updated Loan
	err := s.store.Update(ctx, func(all []Loan) ([]Loan, error) {
		i := recordstore.IndexOf(all, loanID)
		if i < 0 {
			return nil, apperr.NotFound("loan not found")
		}
		if all[i].Status != StatusBorrowed {
			return nil, apperr.InvalidTransition("loan already returned")
		}
		now := s.clock.Now()
		all[i].Status = StatusReturned
		all[i].ReturnDate = &now
		all[i].UpdatedAt = now
		updated = all[i]
		return all, nil
	})
	if err != nil {
		if apperr.IsOperational(err) {
			return Loan{}, err
		}
		return Loan{}, apperr.Wrap(apperr.CodeInternal, "failed to update loan", err)
	}
	s.log.Info("loan returned",
		zap.String("loan_id", loanID),
		zap.String("media_property_number", updated.MediaPropertyNumber),
	)
	return updated, nil
}

func (s *Service) Get(ctx context.Context, loanID string) (Loan, error) {
	l, err := recordstore.FindByID(ctx, s.store, loanID)
	if errors.Is(err, recordstore.ErrNotFound) {
		return Loan{}, apperr.NotFound("loan not found")
	}
	if err != nil {
		return Loan{}, apperr.Wrap(apperr.CodeInternal, "failed to read loans", err)
	}
	return l, nil
}
