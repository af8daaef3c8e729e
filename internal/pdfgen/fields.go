package pdfgen

import (
	"fmt"
	"strings"
	"time"
)

// ReasonPrefix: 申請理由の前に付ける定型文
const ReasonPrefix = "單位需申請超過一隻原因："

// rocOffset: 民國紀年 = 西暦 - 1911
const rocOffset = 1911

type FieldInput struct {
	Custodian      string
	AffiliatedUnit string
	Reason         string
	ApplNumber     string
}

// Fields はテンプレートに流し込む値を作る。日付は now から（ユーザー入力は使わない）
func Fields(in FieldInput, now time.Time) map[string]string {
	reason := strings.TrimSpace(in.Reason)
	if reason != "" {
		reason = ReasonPrefix + reason
	}
	return map[string]string{
		"custodian":      in.Custodian,
		"affiliatedUnit": in.AffiliatedUnit,
		"reason":         reason,
		"applNumber":     in.ApplNumber,
		"year":           fmt.Sprintf("%d", now.Year()-rocOffset),
		"month":          fmt.Sprintf("%02d", int(now.Month())),
		"day":            fmt.Sprintf("%02d", now.Day()),
	}
}
