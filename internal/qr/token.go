package qr

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"strings"
	"time"
)

// Payload is the decoded content of a visit's QR code. It is derived from a
// visit, never stored on its own, and verified against a freshly recomputed
// hash at the gate.
type Payload struct {
	VisitCode     string    `json:"visit_code"`
	VisitorName   string    `json:"visitor_name"`
	CompanyName   string    `json:"company_name"`
	ScheduledDate time.Time `json:"scheduled_date"`
	GateNumber    string    `json:"gate_number"`
	SecurityHash  string    `json:"security_hash,omitempty"`
}

// SigningConfig carries the process-wide QR signing secret. Rotating it
// invalidates all outstanding codes, which is acceptable: codes live only as
// long as their visit.
type SigningConfig struct {
	Secret string
}

type Signer struct {
	cfg SigningConfig
}

func NewSigner(cfg SigningConfig) *Signer {
	return &Signer{cfg: cfg}
}

const fieldSep = "|"

// Sign computes the integrity digest over the canonical payload fields. The
// scheduled date is truncated to the minute so re-derivation from storage is
// stable regardless of sub-minute precision.
func (s *Signer) Sign(p Payload) string {
	canonical := strings.Join([]string{
		p.VisitCode,
		p.VisitorName,
		p.CompanyName,
		p.ScheduledDate.UTC().Format("2006-01-02T15:04"),
		p.GateNumber,
	}, fieldSep)
	sum := sha256.Sum256([]byte(canonical + fieldSep + s.cfg.Secret))
	return hex.EncodeToString(sum[:])
}

// Issue returns a copy of the payload with its SecurityHash filled in.
func (s *Signer) Issue(p Payload) Payload {
	p.SecurityHash = s.Sign(p)
	return p
}

// Verify recomputes the digest and compares in constant time. The contract
// is boolean only; callers never learn why verification failed.
func (s *Signer) Verify(p Payload) bool {
	want := s.Sign(p)
	return subtle.ConstantTimeCompare([]byte(want), []byte(p.SecurityHash)) == 1
}

// Encode serializes the payload to the transport-safe string embedded in the
// physical QR image.
func Encode(p Payload) string {
	raw, _ := json.Marshal(p)
	return base64.URLEncoding.EncodeToString(raw)
}

// Decode is the inverse of Encode. Malformed input yields nil, not an error:
// an undecodable code is treated exactly like an invalid one.
func Decode(encoded string) *Payload {
	raw, err := base64.URLEncoding.DecodeString(strings.TrimSpace(encoded))
	if err != nil {
		return nil
	}
	var p Payload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil
	}
	if p.VisitCode == "" {
		return nil
	}
	return &p
}
