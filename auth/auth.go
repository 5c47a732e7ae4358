// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strings"
)

// Request headers carrying credentials
const (
	AdminKeyHeader       = "X-Admin-Key"
	EvaluatorTokenHeader = "X-Evaluator-Token"
)

const (
	evaluatorTokenBytes = 24 // 192 bits
	slugBytes           = 10
)

var (
	ErrInvalidAdminKey = errors.New("invalid admin key")
	ErrInvalidToken    = errors.New("invalid token format")
	ErrMissingToken    = errors.New("evaluator token required")
)

func mac(salt string, parts ...string) []byte {
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(strings.Join(parts, ":")))
	return h.Sum(nil)
}

// GenerateAdminKey derives the admin key for a decision. Nothing is stored;
// the key is recomputed to validate it.
func GenerateAdminKey(decisionID, salt string) string {
	return base64.RawURLEncoding.EncodeToString(mac(salt, "admin", decisionID))
}

// ValidateAdminKey checks the key in constant time.
func ValidateAdminKey(decisionID, adminKey, salt string) error {
	if adminKey == "" {
		return ErrInvalidAdminKey
	}
	expected := GenerateAdminKey(decisionID, salt)
	if !hmac.Equal([]byte(adminKey), []byte(expected)) {
		return ErrInvalidAdminKey
	}
	return nil
}

// AuthorizeAdmin validates the X-Admin-Key header of r for decisionID.
func AuthorizeAdmin(r *http.Request, decisionID, salt string) error {
	return ValidateAdminKey(decisionID, r.Header.Get(AdminKeyHeader), salt)
}

// GenerateEvaluatorToken creates the random secret an evaluator receives on
// joining. It identifies their submission and lets them revise it.
func GenerateEvaluatorToken() (string, error) {
	b := make([]byte, evaluatorTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate evaluator token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// EvaluatorToken reads and sanity-checks the X-Evaluator-Token header.
// Membership is checked by the store.
func EvaluatorToken(r *http.Request) (string, error) {
	token := strings.TrimSpace(r.Header.Get(EvaluatorTokenHeader))
	if token == "" {
		return "", ErrMissingToken
	}
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil || len(raw) != evaluatorTokenBytes {
		return "", ErrInvalidToken
	}
	return token, nil
}

// GenerateShareSlug derives the public slug of an opened decision.
// Slugs are base62 so they survive any URL or chat client unescaped.
func GenerateShareSlug(decisionID, salt string) string {
	sum := mac(salt, "slug", decisionID)
	return base62Encode(sum[:slugBytes])
}

func base62Encode(data []byte) string {
	n := new(big.Int).SetBytes(data)
	if n.Sign() == 0 {
		return "0"
	}
	return n.Text(62)
}

// HashIP creates a salted one-way hash of an IP address. Only the first
// 8 bytes are kept; enough to spot repeats, not to recover the address.
func HashIP(ip, salt string) string {
	return hex.EncodeToString(mac(salt, "ip", ip)[:8])
}
