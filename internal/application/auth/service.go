// Package auth composes password hashing, OTPs and tokens into the account
// flows: register, login, refresh, OTP verification and resend.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-todo-auth/internal/application/otp"
	"github.com/go-todo-auth/internal/application/token"
	"github.com/go-todo-auth/internal/domain"
	"github.com/go-todo-auth/internal/infrastructure/smtp"
	"github.com/go-todo-auth/internal/infrastructure/sns"
	"github.com/go-todo-auth/internal/metrics"
	"github.com/go-todo-auth/internal/pkg/id"
	"go.uber.org/zap"
)

var (
	// ErrInvalidCredentials is returned for unknown users and wrong passwords alike.
	ErrInvalidCredentials = fmt.Errorf("invalid username/email or password: %w", domain.ErrUnauthorized)
	ErrUserExists         = fmt.Errorf("user already exists with provided details: %w", domain.ErrConflict)
	ErrUserNotFound       = fmt.Errorf("user not found: %w", domain.ErrNotFound)
	// ErrOTPResendConflict is returned when another resend for the same channel won the race.
	ErrOTPResendConflict = fmt.Errorf("another code was requested at the same time, please try again: %w", domain.ErrConflict)
)

type Service interface {
	Register(ctx context.Context, req domain.RegisterRequest) (*domain.User, error)
	Login(ctx context.Context, req domain.LoginRequest, device domain.Device) (*domain.User, *domain.TokenPair, error)
	Refresh(ctx context.Context, refreshToken, deviceUUID string) (string, error)
	VerifyOTP(ctx context.Context, req domain.VerifyOTPRequest) error
	ResendOTP(ctx context.Context, req domain.ResendOTPRequest) error
	Profile(ctx context.Context, userUID string) (*domain.User, error)
}

type userStore interface {
	Exists(ctx context.Context, username, email, mobile string) (bool, error)
	Create(ctx context.Context, u *domain.User) error
	Get(ctx context.Context, userUID string) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

type passwordHasher interface {
	Hash(password string) (string, error)
	Verify(password, encoded string) (bool, error)
}

type ServiceDeps struct {
	UserRepo userStore
	Hasher   passwordHasher
	OTPs     otp.Service
	Tokens   token.Service
	// SMSSender and Mailer may be nil; delivery is then skipped and logged.
	SMSSender     sns.SMSSender
	Mailer        smtp.Mailer
	NotifyTimeout time.Duration
	OTPTTL        time.Duration
	Now           func() time.Time
	Logger        *zap.Logger
}

type service struct {
	users         userStore
	hasher        passwordHasher
	otps          otp.Service
	tokens        token.Service
	sms           sns.SMSSender
	mailer        smtp.Mailer
	notifyTimeout time.Duration
	otpTTL        time.Duration
	now           func() time.Time
	log           *zap.Logger
}

func NewService(d ServiceDeps) Service {
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.NotifyTimeout <= 0 {
		d.NotifyTimeout = 10 * time.Second
	}
	return &service{
		users:         d.UserRepo,
		hasher:        d.Hasher,
		otps:          d.OTPs,
		tokens:        d.Tokens,
		sms:           d.SMSSender,
		mailer:        d.Mailer,
		notifyTimeout: d.NotifyTimeout,
		otpTTL:        d.OTPTTL,
		now:           d.Now,
		log:           d.Logger,
	}
}

// Register creates an unverified account and sends a phone OTP. The request
// must already have passed validation.
func (s *service) Register(ctx context.Context, req domain.RegisterRequest) (*domain.User, error) {
	exists, err := s.users.Exists(ctx, req.Username, req.Email, req.MobileNumber)
	if err != nil {
		return nil, fmt.Errorf("check existing user: %w", err)
	}
	if exists {
		s.log.Warn("registration for existing user",
			zap.String("username", req.Username),
			zap.String("email", req.Email),
		)
		return nil, ErrUserExists
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	now := s.now().UTC()
	u := &domain.User{
		UserUID:      id.New(),
		Username:     req.Username,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Email:        req.Email,
		MobileNumber: req.MobileNumber,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil, ErrUserExists
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	metrics.RegistrationsTotal.Inc()

	// The account exists from here on; a missing OTP is recoverable through resend.
	code, err := s.otps.Issue(ctx, u.UserUID, domain.OTPPurposePhone)
	if err != nil {
		s.log.Error("issue registration otp", zap.String("user_uid", u.UserUID), zap.Error(err))
		return u, nil
	}
	s.deliver(ctx, u, code)
	return u, nil
}

// Login accepts a username or an email address as identifier.
func (s *service) Login(ctx context.Context, req domain.LoginRequest, device domain.Device) (*domain.User, *domain.TokenPair, error) {
	u, err := s.lookup(ctx, req.Username)
	if err != nil {
		metrics.LoginAttemptsTotal.WithLabelValues("failed").Inc()
		return nil, nil, err
	}
	ok, err := s.hasher.Verify(req.Password, u.PasswordHash)
	if err != nil {
		s.log.Warn("stored password hash unreadable", zap.String("user_uid", u.UserUID), zap.Error(err))
	}
	if !ok {
		metrics.LoginAttemptsTotal.WithLabelValues("failed").Inc()
		return nil, nil, ErrInvalidCredentials
	}
	pair, err := s.tokens.Login(ctx, u.UserUID, device)
	if err != nil {
		return nil, nil, fmt.Errorf("issue tokens: %w", err)
	}
	metrics.LoginAttemptsTotal.WithLabelValues("success").Inc()
	return u, pair, nil
}

func (s *service) lookup(ctx context.Context, identifier string) (*domain.User, error) {
	u, err := s.users.GetByUsername(ctx, identifier)
	if errors.Is(err, domain.ErrNotFound) {
		u, err = s.users.GetByEmail(ctx, identifier)
	}
	if errors.Is(err, domain.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	return u, nil
}

func (s *service) Refresh(ctx context.Context, refreshToken, deviceUUID string) (string, error) {
	return s.tokens.Refresh(ctx, refreshToken, deviceUUID)
}

func (s *service) VerifyOTP(ctx context.Context, req domain.VerifyOTPRequest) error {
	if req.UserID == "" || req.OTP == "" || req.Type == "" {
		return fmt.Errorf("user_id, otp and type are required: %w", domain.ErrBadRequest)
	}
	return s.otps.Verify(ctx, req.UserID, req.OTP, req.Type)
}

func (s *service) ResendOTP(ctx context.Context, req domain.ResendOTPRequest) error {
	if req.UserID == "" || req.Type == "" {
		return fmt.Errorf("user_id and type are required: %w", domain.ErrBadRequest)
	}
	purpose, ok := domain.ParseOTPPurpose(req.Type)
	if !ok {
		return fmt.Errorf("type must be phone or email: %w", domain.ErrBadRequest)
	}
	u, err := s.users.Get(ctx, req.UserID)
	if errors.Is(err, domain.ErrNotFound) {
		return ErrUserNotFound
	}
	if err != nil {
		return fmt.Errorf("get user: %w", err)
	}
	code, err := s.otps.Reissue(ctx, u.UserUID, purpose)
	if errors.Is(err, domain.ErrConflict) {
		return ErrOTPResendConflict
	}
	if err != nil {
		return fmt.Errorf("reissue otp: %w", err)
	}
	s.deliver(ctx, u, code)
	return nil
}

func (s *service) Profile(ctx context.Context, userUID string) (*domain.User, error) {
	u, err := s.users.Get(ctx, userUID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	return u, err
}

// deliver sends o over its channel after it has been stored. Failures are
// logged and counted only; the stored code stays valid.
func (s *service) deliver(ctx context.Context, u *domain.User, o *domain.OTP) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.notifyTimeout)
	defer cancel()

	minutes := int(s.otpTTL.Minutes())
	switch o.Purpose {
	case domain.OTPPurposePhone:
		if s.sms == nil {
			s.notifyFailed("sms", u.UserUID, errors.New("sms delivery not configured"))
			return
		}
		msg := fmt.Sprintf("Your verification code is %s. It expires in %d minutes.", o.Code, minutes)
		deliveryID, err := s.sms.SendSMS(ctx, u.MobileNumber, msg)
		if err != nil {
			s.notifyFailed("sms", u.UserUID, err)
			return
		}
		s.log.Info("otp sent", zap.String("channel", "sms"), zap.String("user_uid", u.UserUID), zap.String("delivery_id", deliveryID))
	case domain.OTPPurposeEmail:
		if s.mailer == nil {
			s.notifyFailed("email", u.UserUID, errors.New("email delivery not configured"))
			return
		}
		body := fmt.Sprintf("Hello %s,\n\nYour verification code is %s. It expires in %d minutes.\n", u.FirstName, o.Code, minutes)
		if err := s.mailer.SendEmail(u.Email, "Your verification code", body); err != nil {
			s.notifyFailed("email", u.UserUID, err)
			return
		}
		s.log.Info("otp sent", zap.String("channel", "email"), zap.String("user_uid", u.UserUID))
	}
}

func (s *service) notifyFailed(channel, userUID string, err error) {
	metrics.NotificationFailuresTotal.WithLabelValues(channel).Inc()
	s.log.Warn("otp delivery failed",
		zap.String("channel", channel),
		zap.String("user_uid", userUID),
		zap.Error(err),
	)
}
