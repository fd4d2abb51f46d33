// Package auth issues and checks the HMAC tokens that guard the local panel API.
package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"strconv"
	"strings"
	"time"
)

var (
	ErrNoSecret    = errors.New("panel token secret not configured")
	ErrTokenFormat = errors.New("invalid token format")
	ErrTokenSig    = errors.New("invalid token signature")
	ErrTokenExp    = errors.New("token expired")
)

// GeneratePanelToken signs subject and expiry.
// Format: base64url(subject + "." + exp_unix + "." + hex(hmac_sha256(secret, subject+"."+exp)))
func GeneratePanelToken(secret, subject string, exp time.Time) (string, error) {
	if secret == "" {
		return "", ErrNoSecret
	}
	if subject == "" || strings.Contains(subject, ".") {
		return "", ErrTokenFormat
	}
	msg := subject + "." + strconv.FormatInt(exp.Unix(), 10)
	raw := msg + "." + sign(secret, msg)
	return base64.RawURLEncoding.EncodeToString([]byte(raw)), nil
}

// ValidatePanelToken checks the signature and expiry, tolerating skew
// past exp. It returns the embedded subject.
func ValidatePanelToken(secret, token string, now time.Time, skew time.Duration) (string, error) {
	if secret == "" {
		return "", ErrNoSecret
	}
	b, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return "", ErrTokenFormat
	}
	parts := strings.Split(string(b), ".")
	if len(parts) != 3 || parts[0] == "" {
		return "", ErrTokenFormat
	}
	exp, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return "", ErrTokenFormat
	}
	got, err := hex.DecodeString(parts[2])
	if err != nil {
		return "", ErrTokenFormat
	}
	want, _ := hex.DecodeString(sign(secret, parts[0]+"."+parts[1]))
	if !hmac.Equal(want, got) {
		return "", ErrTokenSig
	}
	if now.Unix() > exp+int64(skew.Seconds()) {
		return "", ErrTokenExp
	}
	return parts[0], nil
}

func sign(secret, msg string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(msg))
	return hex.EncodeToString(mac.Sum(nil))
}
