package applications

import (
	"bytes"
	"encoding/json"
	"errors"
)

type CreateApplicationRequest struct {
	AffiliatedUnit string            `json:"affiliatedUnit"`
	Custodian      string            `json:"custodian"`
	ContactPerson  string            `json:"contactPerson"`
	AssetName      string            `json:"assetName"`
	Reason         string            `json:"reason"`
	Remark         string            `json:"remark"`
	ApplicantName  string            `json:"applicantName"`
	Extra          map[string]string `json:"extra"`
}

// フォームの既知項目とサーバー側で決める項目。これ以外のキーは Extra に入れる
var reservedKeys = map[string]struct{}{
	"affiliatedUnit": {}, "custodian": {}, "contactPerson": {}, "assetName": {},
	"reason": {}, "remark": {}, "applicantName": {}, "extra": {},
	"id": {}, "status": {}, "createdAt": {}, "updatedAt": {}, "sourceIp": {},
	"submissionId": {}, "appl_number": {}, "reviewedBy": {},
}

func (r *CreateApplicationRequest) UnmarshalJSON(b []byte) error {
	type plain CreateApplicationRequest
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	for k, v := range raw {
		if _, ok := reservedKeys[k]; ok {
			continue
		}
		if p.Extra == nil {
			p.Extra = make(map[string]string)
		}
		if _, ok := p.Extra[k]; ok {
			continue
		}
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			s = string(v)
		}
		p.Extra[k] = s
	}
	*r = CreateApplicationRequest(p)
	return nil
}

var errBodyShape = errors.New("body must be an application object or an array of them")

// decodeCreate: 1件（オブジェクト）でも複数（配列）でも受け付ける
func decodeCreate(body []byte) ([]CreateApplicationRequest, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, errBodyShape
	}
	switch body[0] {
	case '[':
		var reqs []CreateApplicationRequest
		if err := json.Unmarshal(body, &reqs); err != nil {
			return nil, err
		}
		return reqs, nil
	case '{':
		var req CreateApplicationRequest
		if err := json.Unmarshal(body, &req); err != nil {
			return nil, err
		}
		return []CreateApplicationRequest{req}, nil
	}
	return nil, errBodyShape
}

type CreateResponse struct {
	Message      string        `json:"message"`
	SubmissionID string        `json:"submissionId"`
	Applications []Application `json:"applications"`
}

type StatusRequest struct {
	Status Status `json:"status" binding:"required"`
}

// StatusResult: PDF 生成に失敗しても状態変更は確定し、warning で知らせる
type StatusResult struct {
	Message     string      `json:"message"`
	Application Application `json:"application"`
	Warning     string      `json:"warning,omitempty"`
}

type WithdrawSubmissionResult struct {
	Message      string        `json:"message"`
	SubmissionID string        `json:"submissionId"`
	Withdrawn    []Application `json:"withdrawn"`
}
