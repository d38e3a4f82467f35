package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/bizchat/server/internal/model"
)

const (
	otpLength         = 6
	otpExpiry         = 10 * time.Minute
	maxAttempts       = 5
	signupGrantExpiry = 10 * time.Minute
)

var otpSpace = big.NewInt(1_000_000)

// CredentialStore holds pending OTP challenges keyed by phone number.
// Only the most recently issued challenge for a phone is ever accepted: issuing
// a new code supersedes the previous one.
type CredentialStore struct {
	mu         sync.Mutex
	challenges map[string]*model.OtpChallenge
	grants     map[string]time.Time // phone -> signup grant expiry
	salt       string
	now        func() time.Time
}

// NewCredentialStore creates an empty store. salt is mixed into every code hash.
func NewCredentialStore(salt string) *CredentialStore {
	return &CredentialStore{
		challenges: make(map[string]*model.OtpChallenge),
		grants:     make(map[string]time.Time),
		salt:       salt,
		now:        time.Now,
	}
}

// Issue generates a fresh 6-digit code for phone and records its hash with a
// 10-minute expiry. The plaintext code is returned to the caller and not kept.
func (s *CredentialStore) Issue(phone string) (string, error) {
	code, err := generateOTPCode()
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}

	now := s.now()
	s.mu.Lock()
	s.challenges[phone] = &model.OtpChallenge{
		PhoneNumber: phone,
		CodeHash:    hashOTP(phone, code, s.salt),
		CreatedAt:   now,
		ExpiresAt:   now.Add(otpExpiry),
	}
	s.mu.Unlock()

	return code, nil
}

// Verify checks code against the current challenge for phone and consumes the
// challenge on success. Expired challenges count as absent. After maxAttempts
// failed attempts the challenge is discarded.
func (s *CredentialStore) Verify(phone, code string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch, ok := s.challenges[phone]
	if !ok {
		return false
	}
	if !s.now().Before(ch.ExpiresAt) {
		delete(s.challenges, phone)
		return false
	}

	if subtle.ConstantTimeCompare(hashOTP(phone, code, s.salt), ch.CodeHash) != 1 {
		ch.AttemptCount++
		if ch.AttemptCount >= maxAttempts {
			delete(s.challenges, phone)
		}
		return false
	}

	delete(s.challenges, phone)
	return true
}

// GrantSignup records that phone passed OTP verification without having an
// account, allowing exactly one profile creation within signupGrantExpiry.
func (s *CredentialStore) GrantSignup(phone string) {
	s.mu.Lock()
	s.grants[phone] = s.now().Add(signupGrantExpiry)
	s.mu.Unlock()
}

// ConsumeSignup spends the signup grant for phone.
func (s *CredentialStore) ConsumeSignup(phone string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	expiresAt, ok := s.grants[phone]
	if !ok {
		return false
	}
	delete(s.grants, phone)
	return s.now().Before(expiresAt)
}

// Sweep drops expired challenges and grants. Returns how many entries were removed.
func (s *CredentialStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for phone, ch := range s.challenges {
		if !now.Before(ch.ExpiresAt) {
			delete(s.challenges, phone)
			removed++
		}
	}
	for phone, expiresAt := range s.grants {
		if !now.Before(expiresAt) {
			delete(s.grants, phone)
			removed++
		}
	}
	return removed
}

// generateOTPCode returns a uniformly distributed code in [000000, 999999].
func generateOTPCode() (string, error) {
	n, err := rand.Int(rand.Reader, otpSpace)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", otpLength, n.Int64()), nil
}

// hashOTP returns SHA-256(phone:code:salt)
func hashOTP(phone, code, salt string) []byte {
	hash := sha256.Sum256([]byte(fmt.Sprintf("%s:%s:%s", phone, code, salt)))
	return hash[:]
}
