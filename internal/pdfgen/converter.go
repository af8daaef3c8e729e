package pdfgen

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"

	"MediaLoan-backend/internal/platform/logger"
)

var (
	ErrConverterNotConfigured = errors.New("soffice path is not set")
	ErrConverterNotFound      = errors.New("soffice not found")
)

// Converter は ODT → PDF 変換。出力は outDir/<入力ファイル名>.pdf
type Converter interface {
	Convert(ctx context.Context, inputPath, outDir string) error
}

// SofficeConverter は LibreOffice を headless で呼ぶ
type SofficeConverter struct {
	path    string
	timeout time.Duration // 0 なら無制限
	log     *zap.Logger
}

func NewSofficeConverter(path string, timeout time.Duration, log *zap.Logger) *SofficeConverter {
	return &SofficeConverter{path: strings.TrimSpace(path), timeout: timeout, log: logger.OrNop(log)}
}

func (c *SofficeConverter) Convert(ctx context.Context, inputPath, outDir string) error {
	if c.path == "" {
		return ErrConverterNotConfigured
	}
	bin, err := exec.LookPath(c.path)
	if err != nil {
		return fmt.Errorf("%w: %s (%v)", ErrConverterNotFound, c.path, err)
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	args := []string{"--headless", "--convert-to", "pdf", inputPath, "--outdir", outDir}
	cmd := exec.CommandContext(ctx, bin, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err = cmd.Run()
	if s := strings.TrimSpace(stderr.String()); s != "" {
		c.log.Warn("soffice stderr", zap.String("input", inputPath), zap.String("stderr", s))
	}
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("soffice aborted: %w", ctxErr)
		}
		return fmt.Errorf("soffice failed: %w", err)
	}
	c.log.Debug("soffice done", zap.String("input", inputPath), zap.String("stdout", strings.TrimSpace(stdout.String())))
	return nil
}
