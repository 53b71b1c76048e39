// Package token mints device-bound access and refresh tokens.
package token

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-todo-auth/internal/domain"
	jwtinfra "github.com/go-todo-auth/internal/infrastructure/jwt"
	"github.com/go-todo-auth/internal/metrics"
	"go.uber.org/zap"
)

type Store interface {
	Put(ctx context.Context, t *domain.TokenPair) error
	GetByRefreshToken(ctx context.Context, refreshToken string) (*domain.TokenPair, error)
	UpdateAccessToken(ctx context.Context, userUID, deviceUUID, refreshToken, accessToken string, accessExpiry, now time.Time) error
}

type Signer interface {
	Sign(userUID string, typ jwtinfra.TokenType, ttl time.Duration) (string, time.Time, error)
}

// ErrInvalidRefresh is returned for unknown, expired or foreign-device refresh tokens alike.
var ErrInvalidRefresh = fmt.Errorf("invalid or expired refresh token or mismatched device UUID: %w", domain.ErrUnauthorized)

type Service interface {
	// Login mints a fresh pair for the device, replacing any pair it held before.
	Login(ctx context.Context, userUID string, device domain.Device) (*domain.TokenPair, error)
	// Refresh mints a new access token. The refresh token itself is kept.
	Refresh(ctx context.Context, refreshToken, deviceUUID string) (string, error)
}

type ServiceDeps struct {
	Store      Store
	Signer     Signer
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	Now        func() time.Time
	Logger     *zap.Logger
}

type service struct {
	store      Store
	signer     Signer
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
	log        *zap.Logger
}

func NewService(d ServiceDeps) Service {
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	return &service{
		store:      d.Store,
		signer:     d.Signer,
		accessTTL:  d.AccessTTL,
		refreshTTL: d.RefreshTTL,
		now:        d.Now,
		log:        d.Logger,
	}
}

func (s *service) Login(ctx context.Context, userUID string, device domain.Device) (*domain.TokenPair, error) {
	if device.UUID == "" {
		return nil, fmt.Errorf("device uuid required: %w", domain.ErrBadRequest)
	}
	access, accessExp, err := s.signer.Sign(userUID, jwtinfra.TokenAccess, s.accessTTL)
	if err != nil {
		return nil, err
	}
	refresh, refreshExp, err := s.signer.Sign(userUID, jwtinfra.TokenRefresh, s.refreshTTL)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	pair := &domain.TokenPair{
		UserUID:            userUID,
		DeviceUUID:         device.UUID,
		DeviceName:         device.Name,
		AccessToken:        access,
		AccessTokenExpiry:  accessExp,
		RefreshToken:       refresh,
		RefreshTokenExpiry: refreshExp,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := s.store.Put(ctx, pair); err != nil {
		return nil, fmt.Errorf("store token pair: %w", err)
	}
	return pair, nil
}

func (s *service) Refresh(ctx context.Context, refreshToken, deviceUUID string) (string, error) {
	access, err := s.refresh(ctx, refreshToken, deviceUUID)
	switch {
	case err == nil:
		metrics.TokenRefreshTotal.WithLabelValues("success").Inc()
	case errors.Is(err, domain.ErrUnauthorized):
		metrics.TokenRefreshTotal.WithLabelValues("rejected").Inc()
	default:
		metrics.TokenRefreshTotal.WithLabelValues("error").Inc()
	}
	return access, err
}

func (s *service) refresh(ctx context.Context, refreshToken, deviceUUID string) (string, error) {
	if refreshToken == "" || deviceUUID == "" {
		return "", ErrInvalidRefresh
	}
	pair, err := s.store.GetByRefreshToken(ctx, refreshToken)
	if errors.Is(err, domain.ErrNotFound) {
		return "", ErrInvalidRefresh
	}
	if err != nil {
		return "", fmt.Errorf("lookup refresh token: %w", err)
	}
	now := s.now().UTC()
	if pair.DeviceUUID != deviceUUID {
		s.log.Warn("refresh token presented from another device",
			zap.String("user_uid", pair.UserUID),
			zap.String("device_uuid", deviceUUID),
		)
		return "", ErrInvalidRefresh
	}
	if !pair.RefreshTokenExpiry.After(now.Truncate(time.Second)) {
		return "", ErrInvalidRefresh
	}

	access, accessExp, err := s.signer.Sign(pair.UserUID, jwtinfra.TokenAccess, s.accessTTL)
	if err != nil {
		return "", err
	}
	err = s.store.UpdateAccessToken(ctx, pair.UserUID, pair.DeviceUUID, refreshToken, access, accessExp, now)
	if errors.Is(err, domain.ErrUnauthorized) {
		return "", ErrInvalidRefresh
	}
	if err != nil {
		return "", fmt.Errorf("store access token: %w", err)
	}
	return access, nil
}
