package voting

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const TokenPurposeVote = "vote"

var (
	ErrInvalidToken = errors.New("invalid validation token")
	ErrTokenExpired = errors.New("validation token expired")
)

// TokenIssuer mints the short-lived proof handed out after a successful OTP
// verification. The token binds identifier and purpose so it cannot be
// replayed for a different contact or flow.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

func (i *TokenIssuer) Issue(identifier, purpose string) string {
	expires := i.now().Add(i.ttl).Unix()
	payload := fmt.Sprintf("%s|%s|%d", identifier, purpose, expires)
	sig := i.sign(payload)
	return base64.RawURLEncoding.EncodeToString([]byte(payload)) + "." + sig
}

func (i *TokenIssuer) Validate(token, identifier, purpose string) error {
	parts := strings.SplitN(token, ".", 2)
	if len(parts) != 2 {
		return ErrInvalidToken
	}
	raw, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return ErrInvalidToken
	}
	payload := string(raw)

	expected := i.sign(payload)
	if !hmac.Equal([]byte(parts[1]), []byte(expected)) {
		return ErrInvalidToken
	}

	fields := strings.Split(payload, "|")
	if len(fields) != 3 || fields[0] != identifier || fields[1] != purpose {
		return ErrInvalidToken
	}
	expires, err := strconv.ParseInt(fields[2], 10, 64)
	if err != nil {
		return ErrInvalidToken
	}
	if i.now().Unix() >= expires {
		return ErrTokenExpired
	}
	return nil
}

func (i *TokenIssuer) sign(payload string) string {
	h := hmac.New(sha256.New, i.secret)
	h.Write([]byte(payload))
	return base64.RawURLEncoding.EncodeToString(h.Sum(nil))
}
