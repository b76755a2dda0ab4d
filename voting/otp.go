package voting

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/tobiakoko/afromerica-voting-api/logging"
	"github.com/tobiakoko/afromerica-voting-api/metrics"
	"github.com/tobiakoko/afromerica-voting-api/notify"
	"github.com/tobiakoko/afromerica-voting-api/storage"
)

const codeAlphabet = "0123456789"

var (
	ErrInvalidIdentifier  = errors.New("identifier format is not valid for the chosen method")
	ErrResendCooldown     = errors.New("a code was sent recently, wait before requesting another")
	ErrCodeExpired        = errors.New("code expired or not found, request a new one")
	ErrCodeMismatch       = errors.New("incorrect code")
	ErrAttemptsExhausted  = errors.New("too many failed attempts, request a new code")
	ErrSendFailed         = errors.New("could not send verification code")
	emailPattern          = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phonePattern          = regexp.MustCompile(`^\+?[0-9]{7,15}$`)
)

type OTPConfig struct {
	CodeLength     int
	CodeTTL        time.Duration
	MaxAttempts    int
	ResendCooldown time.Duration
}

// Validator issues and checks one-time codes for contact identifiers. A
// successful verification yields a signed token consumed by the payment
// initialization step.
type Validator struct {
	store  storage.VoteValidationStorage
	sender notify.Sender
	cache  storage.Cache
	tokens *TokenIssuer
	config OTPConfig
	now    func() time.Time
}

func NewValidator(store storage.VoteValidationStorage, sender notify.Sender, cache storage.Cache, tokens *TokenIssuer, config OTPConfig) *Validator {
	if config.CodeLength == 0 {
		config.CodeLength = 6
	}
	if config.MaxAttempts == 0 {
		config.MaxAttempts = 3
	}
	if config.CodeTTL == 0 {
		config.CodeTTL = 10 * time.Minute
	}
	if config.ResendCooldown == 0 {
		config.ResendCooldown = time.Minute
	}
	return &Validator{
		store:  store,
		sender: sender,
		cache:  cache,
		tokens: tokens,
		config: config,
		now:    time.Now,
	}
}

// Send generates, stores and dispatches a fresh code. Any prior unused code
// for the same identifier+method is invalidated. The response never reveals
// whether the identifier is known to the system.
func (v *Validator) Send(ctx context.Context, identifier string, method storage.ValidationMethod) error {
	identifier, err := normalizeIdentifier(identifier, method)
	if err != nil {
		return err
	}

	cooldownKey := fmt.Sprintf("otp:cooldown:%s:%s", method, identifier)
	stored, err := v.cache.SetNX(ctx, cooldownKey, "1", v.config.ResendCooldown)
	if err != nil {
		logging.Log.Warnf("OTP: cooldown check failed, allowing send: %v", err)
	} else if !stored {
		return ErrResendCooldown
	}

	code, err := gonanoid.Generate(codeAlphabet, v.config.CodeLength)
	if err != nil {
		logging.Log.Errorf("OTP: failed to generate code: %v", err)
		return ErrSendFailed
	}

	validation := &storage.VoteValidation{
		Identifier:  identifier,
		Method:      method,
		Code:        code,
		ExpiresAt:   v.now().Add(v.config.CodeTTL),
		MaxAttempts: v.config.MaxAttempts,
	}
	if err := v.store.Create(ctx, validation); err != nil {
		logging.Log.Errorf("OTP: failed to store code for %s: %v", identifier, err)
		return ErrSendFailed
	}

	if err := v.sender.Send(ctx, identifier, string(method), code); err != nil {
		logging.Log.Errorf("OTP: dispatch failed for %s: %v", identifier, err)
		return ErrSendFailed
	}

	metrics.OTPSentTotal.WithLabelValues(string(method)).Inc()
	return nil
}

// Resend issues a new code for the identifier. The fresh record starts with a
// zero attempt counter; the cooldown inside Send rate-limits abuse.
func (v *Validator) Resend(ctx context.Context, identifier string, method storage.ValidationMethod) error {
	return v.Send(ctx, identifier, method)
}

// Verify checks the submitted code against the latest active record. On a
// match it consumes the code and returns a validation token. On a mismatch it
// returns ErrCodeMismatch with the attempts remaining; exhausting the counter
// invalidates the code permanently.
func (v *Validator) Verify(ctx context.Context, identifier, code string, method storage.ValidationMethod) (token string, attemptsLeft int, err error) {
	identifier, err = normalizeIdentifier(identifier, method)
	if err != nil {
		return "", 0, err
	}
	if len(code) != v.config.CodeLength {
		return "", 0, ErrCodeMismatch
	}

	validation, err := v.store.GetLatestActive(ctx, identifier, method, v.now())
	if err != nil {
		if errors.Is(err, storage.ErrValidationNotFound) {
			return "", 0, ErrCodeExpired
		}
		return "", 0, err
	}

	if validation.Attempts >= validation.MaxAttempts {
		return "", 0, ErrAttemptsExhausted
	}

	if code != validation.Code {
		attempts, err := v.store.IncrementAttempts(ctx, validation.ID)
		if err != nil {
			return "", 0, err
		}
		if attempts >= validation.MaxAttempts {
			if err := v.store.Invalidate(ctx, validation.ID); err != nil {
				logging.Log.Errorf("OTP: failed to invalidate exhausted code: %v", err)
			}
			metrics.OTPExhaustedTotal.Inc()
			return "", 0, ErrAttemptsExhausted
		}
		return "", validation.MaxAttempts - attempts, ErrCodeMismatch
	}

	consumed, err := v.store.MarkVerified(ctx, validation.ID, v.now())
	if err != nil {
		return "", 0, err
	}
	if !consumed {
		// A racing verify already consumed this code.
		return "", 0, ErrCodeExpired
	}

	metrics.OTPVerifiedTotal.Inc()
	return v.tokens.Issue(identifier, TokenPurposeVote), 0, nil
}

// CleanupExpired garbage-collects codes past their expiry.
func (v *Validator) CleanupExpired(ctx context.Context) (int64, error) {
	return v.store.DeleteExpired(ctx, v.now())
}

func normalizeIdentifier(identifier string, method storage.ValidationMethod) (string, error) {
	identifier = strings.TrimSpace(identifier)
	switch method {
	case storage.MethodEmail:
		identifier = strings.ToLower(identifier)
		if !emailPattern.MatchString(identifier) {
			return "", ErrInvalidIdentifier
		}
	case storage.MethodSMS:
		if !phonePattern.MatchString(identifier) {
			return "", ErrInvalidIdentifier
		}
	default:
		return "", ErrInvalidIdentifier
	}
	return identifier, nil
}
