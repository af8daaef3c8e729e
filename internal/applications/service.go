package applications

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	ulid "github.com/oklog/ulid/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"golang.org/x/text/width"

	"MediaLoan-backend/internal/pdfgen"
	"MediaLoan-backend/internal/platform/apperr"
	"MediaLoan-backend/internal/platform/logger"
	"MediaLoan-backend/internal/recordstore"
)

const pdfWarning = "Status updated, but PDF generation failed."

// -------------- Clock & ID --------------

type Clock interface{ Now() time.Time }
type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

type IDGen interface{ NewULID(t time.Time) string }

// 同一ミリ秒内でも単調増加させるため entropy を共有する
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

// -------------- Service --------------

type Service struct {
	store    recordstore.Store[Application]
	renderer pdfgen.Renderer
	archive  pdfgen.ArchiveStore
	clock    Clock
	id       IDGen
	pdfs     singleflight.Group
	log      *zap.Logger
}

func NewService(store recordstore.Store[Application], renderer pdfgen.Renderer, archive pdfgen.ArchiveStore, log *zap.Logger) *Service {
	return &Service{
		store:    store,
		renderer: renderer,
		archive:  archive,
		clock:    realClock{},
		id:       newULIDGen(),
		log:      logger.OrNop(log).With(zap.String("component", "applications")),
	}
}

// Create: 1回の送信で作られたレコードは同じ submissionId を持つ
func (s *Service) Create(ctx context.Context, reqs []CreateApplicationRequest, sourceIP string) ([]Application, string, error) {
	if len(reqs) == 0 {
		return nil, "", apperr.Invalid("at least one application is required")
	}
	for i, r := range reqs {
		if strings.TrimSpace(r.AffiliatedUnit) == "" {
			return nil, "", apperr.Invalid(fmt.Sprintf("applications[%d]: affiliatedUnit is required", i))
		}
		if strings.TrimSpace(r.Custodian) == "" {
			return nil, "", apperr.Invalid(fmt.Sprintf("applications[%d]: custodian is required", i))
		}
	}

	now := s.clock.Now()
	submissionID := s.id.NewULID(now)
	records := make([]Application, 0, len(reqs))
	for _, r := range reqs {
		records = append(records, Application{
			ID:             s.id.NewULID(now),
			AffiliatedUnit: strings.TrimSpace(r.AffiliatedUnit),
			Custodian:      strings.TrimSpace(r.Custodian),
			ContactPerson:  strings.TrimSpace(r.ContactPerson),
			AssetName:      strings.TrimSpace(r.AssetName),
			Reason:         strings.TrimSpace(r.Reason),
			Remark:         strings.TrimSpace(r.Remark),
			ApplicantName:  strings.TrimSpace(r.ApplicantName),
			Extra:          r.Extra,
			Status:         StatusPending,
			CreatedAt:      now,
			UpdatedAt:      now,
			SourceIP:       sourceIP,
			SubmissionID:   submissionID,
		})
	}

	if err := recordstore.Append(ctx, s.store, records...); err != nil {
		return nil, "", apperr.Wrap(apperr.CodeInternal, "failed to save application", err)
	}
	s.log.Info("applications received",
		zap.String("submission_id", submissionID),
		zap.Int("count", len(records)),
		zap.String("source_ip", sourceIP),
	)
	return records, submissionID, nil
}

// List: status が空なら全件
func (s *Service) List(ctx context.Context, status string) ([]Application, error) {
	st := Status(strings.TrimSpace(status))
	if st != "" && !st.Valid() {
		return nil, apperr.Invalid("unknown status: " + status)
	}
	out, err := recordstore.Filter(ctx, s.store, func(a Application) bool {
		return st == "" || a.Status == st
	})
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, "failed to read applications", err)
	}
	return out, nil
}

func (s *Service) ListByUnit(ctx context.Context, unit string) ([]Application, error) {
	want := foldKey(unit)
	if want == "" {
		return nil, apperr.Invalid("unit is required")
	}
	out, err := recordstore.Filter(ctx, s.store, func(a Application) bool {
		return foldKey(a.AffiliatedUnit) == want
	})
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, "failed to read applications", err)
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, id string) (Application, error) {
	a, err := recordstore.FindByID(ctx, s.store, id)
	if errors.Is(err, recordstore.ErrNotFound) {
		return Application{}, apperr.NotFound("application not found")
	}
	if err != nil {
		return Application{}, apperr.Wrap(apperr.CodeInternal, "failed to read applications", err)
	}
	return a, nil
}

// UpdateStatus: 管理者による審査。承認時は appl_number を採番して PDF を作る。
// PDF の失敗で状態変更は巻き戻さない
func (s *Service) UpdateStatus(ctx context.Context, id string, to Status, reviewer string) (StatusResult, error) {
	if to != StatusApproved && to != StatusRejected && to != StatusWithdrawn {
		return StatusResult{}, apperr.Invalid("status must be one of approved, rejected, withdrawn")
	}
	updated, err := s.transition(ctx, id, to, reviewer)
	if err != nil {
		return StatusResult{}, err
	}

	res := StatusResult{
		Message:     "Application status updated to " + string(to) + ".",
		Application: updated,
	}
	if to == StatusApproved {
		if err := s.generatePDF(ctx, updated); err != nil {
			s.log.Error("pdf generation failed after approval",
				zap.String("application_id", id), zap.Error(err))
			res.Warning = pdfWarning
		}
	}
	return res, nil
}

// Withdraw: 申請者による取り下げ（pending のみ）
func (s *Service) Withdraw(ctx context.Context, id string) (Application, error) {
	return s.transition(ctx, id, StatusWithdrawn, "")
}

func (s *Service) transition(ctx context.Context, id string, to Status, reviewer string) (Application, error) {
	var updated Application
	err := s.store.Update(ctx, func(all []Application) ([]Application, error) {
		i := recordstore.IndexOf(all, id)
		if i < 0 {
			return nil, apperr.NotFound("application not found")
		}
		cur := all[i]
		if !canTransition(cur.Status, to) {
			return nil, apperr.InvalidTransition(fmt.Sprintf("cannot change status from %s to %s", cur.Status, to))
		}
		if to == StatusApproved {
			n := nextApplNumber(all, cur)
			cur.ApplNumber = &n
		}
		cur.Status = to
		cur.UpdatedAt = s.clock.Now()
		if reviewer != "" {
			cur.ReviewedBy = reviewer
		}
		all[i] = cur
		updated = cur
		return all, nil
	})
	if err != nil {
		if apperr.IsOperational(err) {
			return Application{}, err
		}
		return Application{}, apperr.Wrap(apperr.CodeInternal, "failed to update application", err)
	}
	s.log.Info("application status changed",
		zap.String("application_id", id),
		zap.String("status", string(to)),
		zap.String("reviewed_by", reviewer),
	)
	return updated, nil
}

// 同じ（単位, 保管人）で既に承認済みの件数 + 1
func nextApplNumber(all []Application, target Application) int {
	unit, custodian := foldKey(target.AffiliatedUnit), foldKey(target.Custodian)
	n := 0
	for _, a := range all {
		if a.ID == target.ID || a.Status != StatusApproved {
			continue
		}
		if foldKey(a.AffiliatedUnit) == unit && foldKey(a.Custodian) == custodian {
			n++
		}
	}
	return n + 1
}

// WithdrawSubmission: グループ内の pending だけを取り下げる
func (s *Service) WithdrawSubmission(ctx context.Context, submissionID string) ([]Application, error) {
	submissionID = strings.TrimSpace(submissionID)
	if submissionID == "" {
		return nil, apperr.Invalid("submissionId is required")
	}

	var withdrawn []Application
	err := s.store.Update(ctx, func(all []Application) ([]Application, error) {
		found := false
		now := s.clock.Now()
		for i := range all {
			if all[i].SubmissionID != submissionID {
				continue
			}
			found = true
			if all[i].Status != StatusPending {
				continue
			}
			all[i].Status = StatusWithdrawn
			all[i].UpdatedAt = now
			withdrawn = append(withdrawn, all[i])
		}
		if !found {
			return nil, apperr.NotFound("submission not found")
		}
		if len(withdrawn) == 0 {
			return nil, apperr.InvalidTransition("no pending applications in this submission")
		}
		return all, nil
	})
	if err != nil {
		if apperr.IsOperational(err) {
			return nil, err
		}
		return nil, apperr.Wrap(apperr.CodeInternal, "failed to update applications", err)
	}
	s.log.Info("submission withdrawn",
		zap.String("submission_id", submissionID),
		zap.Int("count", len(withdrawn)),
	)
	return withdrawn, nil
}

// RegeneratePDF: 承認済みのみ。レコードは変更しない
func (s *Service) RegeneratePDF(ctx context.Context, id string) (Application, error) {
	a, err := s.Get(ctx, id)
	if err != nil {
		return Application{}, err
	}
	if a.Status != StatusApproved {
		return Application{}, apperr.InvalidTransition("PDF can only be generated for approved applications")
	}
	if err := s.generatePDF(ctx, a); err != nil {
		s.log.Error("pdf regeneration failed", zap.String("application_id", id), zap.Error(err))
		return Application{}, apperr.PDFGenerationFailed(err)
	}
	return a, nil
}

// OpenPDF は保管済み PDF を返す。無ければ PDF_NOT_FOUND
func (s *Service) OpenPDF(ctx context.Context, id string) (io.ReadCloser, int64, error) {
	rc, size, err := s.archive.Open(ctx, id)
	if errors.Is(err, pdfgen.ErrNotFound) || errors.Is(err, pdfgen.ErrInvalidKey) {
		return nil, 0, apperr.PDFNotFound("PDF file not found for this application")
	}
	if err != nil {
		return nil, 0, apperr.Wrap(apperr.CodeInternal, "failed to open pdf", err)
	}
	return rc, size, nil
}

// 同じ申請の同時生成は1回にまとめる。クライアント切断では止めない
func (s *Service) generatePDF(ctx context.Context, a Application) error {
	ctx = context.WithoutCancel(ctx)
	_, err, shared := s.pdfs.Do(a.ID, func() (any, error) {
		applNumber := ""
		if a.ApplNumber != nil {
			applNumber = strconv.Itoa(*a.ApplNumber)
		}
		fields := pdfgen.Fields(pdfgen.FieldInput{
			Custodian:      a.Custodian,
			AffiliatedUnit: a.AffiliatedUnit,
			Reason:         a.Reason,
			ApplNumber:     applNumber,
		}, s.clock.Now())

		pdf, err := s.renderer.Render(ctx, fields)
		if err != nil {
			return nil, err
		}
		if err := s.archive.Save(ctx, a.ID, pdf); err != nil {
			return nil, fmt.Errorf("archive pdf: %w", err)
		}
		s.log.Info("pdf generated", zap.String("application_id", a.ID), zap.Int("bytes", len(pdf)))
		return nil, nil
	})
	if shared {
		s.log.Debug("pdf generation shared", zap.String("application_id", a.ID))
	}
	return err
}

func foldKey(s string) string {
	return width.Fold.String(strings.TrimSpace(s))
}
