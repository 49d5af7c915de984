// Package token implements the signed approval-link tokens that stand in
// for a registration database. A token carries the full registration
// payload, is bound to a single action (approve or deny), and expires on
// its own; nothing about a pending registration is stored server side.
package token

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Action binds a token to the single admin decision it can carry out.
type Action string

const (
	ActionApprove Action = "approve"
	ActionDeny    Action = "deny"
)

// Decode failures, ordered by how early the check runs. A token must be
// rejected as forged (malformed or bad signature) before any of its data
// is trusted.
var (
	ErrMalformed        = errors.New("malformed token")
	ErrInvalidSignature = errors.New("invalid token signature")
	ErrInvalidAction    = errors.New("token action mismatch")
	ErrExpired          = errors.New("token expired")
)

// Payload is the registration request embedded verbatim in both tokens
// issued for one submission. Field order is fixed: encoding/json preserves
// struct order, which keeps the signed byte string deterministic.
type Payload struct {
	Username    string    `json:"username"`
	Email       string    `json:"email"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	SubmittedAt time.Time `json:"submitted_at"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// DisplayName is the full name used for directory records and pages.
func (p Payload) DisplayName() string {
	return p.FirstName + " " + p.LastName
}

type envelope struct {
	Data   Payload `json:"data"`
	Action Action  `json:"action"`
}

// Codec signs and verifies tokens with a single HMAC-SHA256 secret. The
// secret is injected here rather than read from process state so each
// caller (and each test) owns its own.
type Codec struct {
	secret []byte
	now    func() time.Time
}

// Option adjusts a Codec. Only used to pin the clock in tests.
type Option func(*Codec)

// WithNow overrides the expiry clock.
func WithNow(now func() time.Time) Option {
	return func(c *Codec) { c.now = now }
}

func New(secret string, opts ...Option) *Codec {
	c := &Codec{
		secret: []byte(secret),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Encode produces the URL-safe wire form:
//
//	base64url( base64url(json{data,action}) + "." + hex(hmac) )
//
// The signature covers the inner base64 text, and the outer encoding keeps
// the whole thing a single clean query-string value.
func (c *Codec) Encode(p Payload, action Action) (string, error) {
	raw, err := json.Marshal(envelope{Data: p, Action: action})
	if err != nil {
		return "", fmt.Errorf("encode token payload: %w", err)
	}

	inner := base64.URLEncoding.EncodeToString(raw)
	signed := inner + "." + c.sign(inner)
	return base64.URLEncoding.EncodeToString([]byte(signed)), nil
}

// Decode verifies tok and returns the embedded payload. Checks run in a
// fixed order: malformed, signature, action, expiry. The signature check is
// constant time.
func (c *Codec) Decode(tok string, expected Action) (Payload, error) {
	signed, err := base64.URLEncoding.DecodeString(tok)
	if err != nil {
		return Payload{}, ErrMalformed
	}

	parts := strings.Split(string(signed), ".")
	if len(parts) != 2 {
		return Payload{}, ErrMalformed
	}
	inner, sig := parts[0], parts[1]

	if subtle.ConstantTimeCompare([]byte(sig), []byte(c.sign(inner))) != 1 {
		return Payload{}, ErrInvalidSignature
	}

	raw, err := base64.URLEncoding.DecodeString(inner)
	if err != nil {
		return Payload{}, ErrMalformed
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Payload{}, ErrMalformed
	}

	if env.Action != expected {
		return Payload{}, ErrInvalidAction
	}

	if c.now().After(env.Data.ExpiresAt) {
		return Payload{}, ErrExpired
	}

	return env.Data, nil
}

func (c *Codec) sign(inner string) string {
	mac := hmac.New(sha256.New, c.secret)
	mac.Write([]byte(inner))
	return hex.EncodeToString(mac.Sum(nil))
}
