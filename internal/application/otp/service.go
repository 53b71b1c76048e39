// Package otp issues and verifies one-time codes that prove possession of a
// phone number or email address.
package otp

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/go-todo-auth/internal/domain"
	"github.com/go-todo-auth/internal/metrics"
	"github.com/go-todo-auth/internal/pkg/id"
	"go.uber.org/zap"
)

// Store persists OTP rows. Replace and Consume must be atomic.
type Store interface {
	Put(ctx context.Context, o *domain.OTP) error
	Replace(ctx context.Context, o *domain.OTP) error
	FindValid(ctx context.Context, userUID, code string, purpose domain.OTPPurpose, now time.Time) (*domain.OTP, error)
	Consume(ctx context.Context, o *domain.OTP, now time.Time) error
}

type Service interface {
	// Issue stores a fresh code for a user that has no earlier codes.
	Issue(ctx context.Context, userUID string, purpose domain.OTPPurpose) (*domain.OTP, error)
	// Reissue invalidates every unused code of userUID/purpose and stores a fresh one.
	Reissue(ctx context.Context, userUID string, purpose domain.OTPPurpose) (*domain.OTP, error)
	// Verify consumes the matching code and marks the channel verified.
	// Every failure other than a storage outage is ErrInvalidOTP.
	Verify(ctx context.Context, userUID, code, purpose string) error
}

type ServiceDeps struct {
	Store  Store
	Length int
	TTL    time.Duration
	Now    func() time.Time
	Logger *zap.Logger
}

type service struct {
	store  Store
	length int
	ttl    time.Duration
	now    func() time.Time
	log    *zap.Logger
}

func NewService(d ServiceDeps) Service {
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	return &service{
		store:  d.Store,
		length: d.Length,
		ttl:    d.TTL,
		now:    d.Now,
		log:    d.Logger,
	}
}

// Generate returns a uniformly random numeric code of the given length,
// keeping leading zeros.
func Generate(length int) (string, error) {
	if length < 1 || length > 18 {
		return "", fmt.Errorf("otp length %d out of range", length)
	}
	max := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(length)), nil)
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	return fmt.Sprintf("%0*d", length, n.Int64()), nil
}

func (s *service) Issue(ctx context.Context, userUID string, purpose domain.OTPPurpose) (*domain.OTP, error) {
	o, err := s.build(userUID, purpose)
	if err != nil {
		return nil, err
	}
	if err := s.store.Put(ctx, o); err != nil {
		return nil, fmt.Errorf("store otp: %w", err)
	}
	metrics.OTPIssuedTotal.WithLabelValues(string(purpose)).Inc()
	return o, nil
}

func (s *service) Reissue(ctx context.Context, userUID string, purpose domain.OTPPurpose) (*domain.OTP, error) {
	o, err := s.build(userUID, purpose)
	if err != nil {
		return nil, err
	}
	if err := s.store.Replace(ctx, o); err != nil {
		return nil, fmt.Errorf("replace otp: %w", err)
	}
	metrics.OTPIssuedTotal.WithLabelValues(string(purpose)).Inc()
	return o, nil
}

func (s *service) build(userUID string, purpose domain.OTPPurpose) (*domain.OTP, error) {
	if _, ok := domain.ParseOTPPurpose(string(purpose)); !ok {
		return nil, fmt.Errorf("unknown otp purpose %q: %w", purpose, domain.ErrBadRequest)
	}
	code, err := Generate(s.length)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	return &domain.OTP{
		UserUID:   userUID,
		OTPID:     id.New(),
		Code:      code,
		Purpose:   purpose,
		ExpiresAt: now.Add(s.ttl).Truncate(time.Second),
		CreatedAt: now,
	}, nil
}

func (s *service) Verify(ctx context.Context, userUID, code, purpose string) error {
	p, ok := domain.ParseOTPPurpose(purpose)
	if !ok || userUID == "" || code == "" {
		metrics.OTPVerificationsTotal.WithLabelValues("unknown", "failed").Inc()
		return domain.ErrInvalidOTP
	}
	err := s.verify(ctx, userUID, code, p)
	result := "success"
	if err != nil {
		result = "failed"
	}
	metrics.OTPVerificationsTotal.WithLabelValues(string(p), result).Inc()
	return err
}

func (s *service) verify(ctx context.Context, userUID, code string, purpose domain.OTPPurpose) error {
	now := s.now().UTC()
	o, err := s.store.FindValid(ctx, userUID, code, purpose, now)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.ErrInvalidOTP
	}
	if err != nil {
		return fmt.Errorf("find otp: %w", err)
	}
	if err := s.store.Consume(ctx, o, now); err != nil {
		if errors.Is(err, domain.ErrInvalidOTP) {
			s.log.Info("otp consumed concurrently", zap.String("user_uid", userUID))
			return err
		}
		return fmt.Errorf("consume otp: %w", err)
	}
	return nil
}
