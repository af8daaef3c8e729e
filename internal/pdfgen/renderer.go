package pdfgen

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"MediaLoan-backend/internal/platform/logger"
	"MediaLoan-backend/internal/platform/metrics"
)

var (
	ErrTemplateNotFound = errors.New("pdf template not found")
	ErrOutputMissing    = errors.New("converted pdf was not created")
	ErrOutputInvalid    = errors.New("converted file is not a pdf")
)

var pdfMagic = []byte("%PDF-")

type Renderer interface {
	Render(ctx context.Context, fields map[string]string) ([]byte, error)
}

// ODTRenderer: テンプレート読込 → 置換 → 一時ODT → 変換 → 検証 → 後片付け
type ODTRenderer struct {
	templatePath string
	tempDir      string
	conv         Converter
	log          *zap.Logger
}

var _ Renderer = (*ODTRenderer)(nil)

func NewODTRenderer(templatePath, tempDir string, conv Converter, log *zap.Logger) *ODTRenderer {
	return &ODTRenderer{
		templatePath: templatePath,
		tempDir:      tempDir,
		conv:         conv,
		log:          logger.OrNop(log),
	}
}

func (r *ODTRenderer) Render(ctx context.Context, fields map[string]string) ([]byte, error) {
	start := time.Now()
	pdf, err := r.render(ctx, fields)
	metrics.ObservePDF(start, err)
	return pdf, err
}

func (r *ODTRenderer) render(ctx context.Context, fields map[string]string) ([]byte, error) {
	tpl, err := os.ReadFile(r.templatePath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, r.templatePath)
	}
	if err != nil {
		return nil, fmt.Errorf("read template: %w", err)
	}
	odt, err := FillTemplate(tpl, fields)
	if err != nil {
		return nil, err
	}

	// soffice はカレントに依存しないよう絶対パスで渡す
	dir, err := filepath.Abs(r.tempDir)
	if err != nil {
		return nil, fmt.Errorf("temp dir: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir %s: %w", dir, err)
	}

	id := uuid.NewString()
	odtPath := filepath.Join(dir, id+".odt")
	pdfPath := filepath.Join(dir, id+".pdf")
	defer r.cleanup(odtPath, pdfPath)

	if err := os.WriteFile(odtPath, odt, 0o644); err != nil {
		return nil, fmt.Errorf("write temp odt: %w", err)
	}
	if err := r.conv.Convert(ctx, odtPath, dir); err != nil {
		return nil, err
	}

	pdf, err := os.ReadFile(pdfPath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrOutputMissing
	}
	if err != nil {
		return nil, fmt.Errorf("read converted pdf: %w", err)
	}
	if !bytes.HasPrefix(pdf, pdfMagic) {
		return nil, ErrOutputInvalid
	}
	return pdf, nil
}

// 一時ファイルの削除失敗はログだけ
func (r *ODTRenderer) cleanup(paths ...string) {
	for _, p := range paths {
		if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			r.log.Warn("could not clean up temp file", zap.String("path", p), zap.Error(err))
		}
	}
}
