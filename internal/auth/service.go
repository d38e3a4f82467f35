package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bizchat/server/internal/apperr"
	"github.com/bizchat/server/internal/model"
	"github.com/bizchat/server/internal/repo"
	"github.com/bizchat/server/pkg/validator"
)

// Options controls deployment-mode behaviour of the auth flow
type Options struct {
	// DevMode echoes issued OTP codes back to the caller. Never enable in production.
	DevMode bool
	// RequireVerifiedSignup makes CreateUser demand a prior VerifyOtp for the
	// same phone number that ended with RequiresProfile.
	RequireVerifiedSignup bool
}

// Service orchestrates OTP issuance/verification and session creation
type Service struct {
	credentials *CredentialStore
	sessions    *SessionStore
	users       repo.UserRepo
	sender      OtpSender
	opts        Options
	now         func() time.Time
}

// NewService creates a new auth service
func NewService(
	credentials *CredentialStore,
	sessions *SessionStore,
	users repo.UserRepo,
	sender OtpSender,
	opts Options,
) *Service {
	return &Service{
		credentials: credentials,
		sessions:    sessions,
		users:       users,
		sender:      sender,
		opts:        opts,
		now:         time.Now,
	}
}

// SendOtpResult is returned by SendOtp. DevCode is only set in dev mode.
type SendOtpResult struct {
	DevCode string
}

// VerifyResult is the outcome of a successful OTP check: either a session for a
// known user, or RequiresProfile for a number that has no account yet.
type VerifyResult struct {
	User            *model.User
	Token           string
	RequiresProfile bool
}

// SendOtp issues a challenge for phone and hands the code to the OtpSender.
func (s *Service) SendOtp(ctx context.Context, phone string) (SendOtpResult, error) {
	phone = validator.NormalizePhone(phone)
	if errs := validator.ValidatePhone(phone); errs.HasErrors() {
		return SendOtpResult{}, fmt.Errorf("%w: %s", apperr.ErrInvalidInput, errs.Error())
	}

	code, err := s.credentials.Issue(phone)
	if err != nil {
		return SendOtpResult{}, fmt.Errorf("issue otp: %w", err)
	}
	if err := s.sender.SendOTP(ctx, phone, code); err != nil {
		return SendOtpResult{}, fmt.Errorf("deliver otp: %w", err)
	}

	if s.opts.DevMode {
		return SendOtpResult{DevCode: code}, nil
	}
	return SendOtpResult{}, nil
}

// VerifyOtp consumes the challenge for phone. Known users get a session and are
// marked online; unknown numbers get RequiresProfile and a signup grant.
func (s *Service) VerifyOtp(ctx context.Context, phone, code string) (VerifyResult, error) {
	phone = validator.NormalizePhone(phone)
	code = strings.TrimSpace(code)
	if phone == "" || code == "" || !s.credentials.Verify(phone, code) {
		return VerifyResult{}, apperr.ErrInvalidCredential
	}

	user, err := s.users.GetByPhone(ctx, phone)
	if errors.Is(err, repo.ErrNotFound) {
		s.credentials.GrantSignup(phone)
		return VerifyResult{RequiresProfile: true}, nil
	}
	if err != nil {
		return VerifyResult{}, fmt.Errorf("look up user: %w", err)
	}

	now := s.now().UTC()
	if err := s.users.SetPresence(ctx, user.ID, true, now); err != nil {
		return VerifyResult{}, fmt.Errorf("mark user online: %w", err)
	}
	user.IsOnline = true
	user.LastSeen = now

	token, err := s.sessions.Create(user.ID)
	if err != nil {
		return VerifyResult{}, fmt.Errorf("create session: %w", err)
	}
	return VerifyResult{User: &user, Token: token}, nil
}

// CreateUser completes a profile for a verified phone number and opens a session.
func (s *Service) CreateUser(ctx context.Context, phone, name, location string) (*model.User, string, error) {
	phone = validator.NormalizePhone(phone)
	name = strings.TrimSpace(name)
	location = strings.TrimSpace(location)
	if errs := validator.ValidateProfile(phone, name, location); errs.HasErrors() {
		return nil, "", fmt.Errorf("%w: %s", apperr.ErrInvalidInput, errs.Error())
	}

	if _, err := s.users.GetByPhone(ctx, phone); err == nil {
		return nil, "", fmt.Errorf("%w: phone number is already registered", apperr.ErrInvalidInput)
	} else if !errors.Is(err, repo.ErrNotFound) {
		return nil, "", fmt.Errorf("look up user: %w", err)
	}

	if s.opts.RequireVerifiedSignup && !s.credentials.ConsumeSignup(phone) {
		return nil, "", fmt.Errorf("%w: phone number has not been verified", apperr.ErrInvalidCredential)
	}

	now := s.now().UTC()
	user := model.User{
		ID:          uuid.New(),
		Name:        name,
		PhoneNumber: phone,
		Location:    location,
		IsVerified:  true,
		IsOnline:    true,
		LastSeen:    now,
		CreatedAt:   now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repo.ErrConflict) {
			return nil, "", fmt.Errorf("%w: phone number is already registered", apperr.ErrInvalidInput)
		}
		return nil, "", fmt.Errorf("create user: %w", err)
	}

	token, err := s.sessions.Create(user.ID)
	if err != nil {
		return nil, "", fmt.Errorf("create session: %w", err)
	}
	return &user, token, nil
}

// Logout revokes token and marks its owner offline.
func (s *Service) Logout(ctx context.Context, token string) error {
	userID, ok := s.sessions.Resolve(token)
	if !ok {
		return apperr.ErrUnauthorized
	}
	s.sessions.Revoke(token)

	if err := s.users.SetPresence(ctx, userID, false, s.now().UTC()); err != nil && !errors.Is(err, repo.ErrNotFound) {
		return fmt.Errorf("mark user offline: %w", err)
	}
	return nil
}

// CurrentUser returns the user behind an authenticated request.
func (s *Service) CurrentUser(ctx context.Context, userID uuid.UUID) (*model.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, fmt.Errorf("%w: user does not exist", apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &user, nil
}

// UpdateProfile edits name, location and avatar. Nil arguments are left unchanged;
// a provided name or location must not be blank.
func (s *Service) UpdateProfile(ctx context.Context, userID uuid.UUID, name, location, avatar *string) (*model.User, error) {
	errs := make(validator.ValidationErrors)
	if name != nil {
		trimmed := strings.TrimSpace(*name)
		if trimmed == "" {
			errs.Add("name", "name must not be empty")
		}
		name = &trimmed
	}
	if location != nil {
		trimmed := strings.TrimSpace(*location)
		if trimmed == "" {
			errs.Add("location", "location must not be empty")
		}
		location = &trimmed
	}
	if errs.HasErrors() {
		return nil, fmt.Errorf("%w: %s", apperr.ErrInvalidInput, errs.Error())
	}

	user, err := s.users.UpdateProfile(ctx, userID, repo.ProfileUpdate{Name: name, Location: location, Avatar: avatar})
	if errors.Is(err, repo.ErrNotFound) {
		return nil, fmt.Errorf("%w: user does not exist", apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return &user, nil
}
