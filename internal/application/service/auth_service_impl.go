package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/bravo68web/ghcrm/internal/config"
	"github.com/bravo68web/ghcrm/internal/domain/models"
	"github.com/bravo68web/ghcrm/internal/domain/repository"
	"github.com/bravo68web/ghcrm/internal/domain/service"
	"github.com/bravo68web/ghcrm/internal/observability"
	apperrors "github.com/bravo68web/ghcrm/pkg/errors"
	"github.com/bravo68web/ghcrm/pkg/logger"
)

const sessionIssuer = "ghcrm"

var errWrongCredentials = apperrors.Unauthorized("wrong credentials provided", apperrors.ErrInvalidCredentials)

// SessionClaims is the signed cookie payload. ID carries the session key and
// Subject the user id; everything else lives in the session store.
type SessionClaims struct {
	jwt.RegisteredClaims
}

// AuthServiceImpl implements the AuthService interface
type AuthServiceImpl struct {
	userRepo repository.UserRepository
	sessions service.SessionStore
	secret   []byte
	ttl      time.Duration
	log      *logger.Logger
	now      func() time.Time
}

var _ service.AuthService = (*AuthServiceImpl)(nil)

// NewAuthService creates a new AuthServiceImpl instance
func NewAuthService(
	userRepo repository.UserRepository,
	sessions service.SessionStore,
	cfg *config.SessionConfig,
) *AuthServiceImpl {
	log := logger.Get().WithFields(logger.Component("auth-service"))

	secret := cfg.Secret
	if secret == "" {
		// Cookies signed with a throwaway secret die with the process
		secret = uuid.NewString() + uuid.NewString()
		log.Warn("SESSION_SECRET not set, generated an ephemeral secret")
	}

	return &AuthServiceImpl{
		userRepo: userRepo,
		sessions: sessions,
		secret:   []byte(secret),
		ttl:      cfg.TTL,
		log:      log,
		now:      time.Now,
	}
}

// SessionTTL returns how long a session and its cookie live
func (s *AuthServiceImpl) SessionTTL() time.Duration {
	return s.ttl
}

// AuthenticatePassword verifies an email and password pair
func (s *AuthServiceImpl) AuthenticatePassword(ctx context.Context, email, password string) (*models.User, error) {
	auth, err := s.userRepo.FindAuthByEmail(ctx, email)
	if err != nil {
		if apperrors.IsNotFound(err) {
			s.log.Debug("Login for unknown email", logger.Email(email))
			return nil, errWrongCredentials
		}
		return nil, err
	}

	if err := s.VerifyPassword(auth.Password, password); err != nil {
		s.log.Debug("Login with wrong password", logger.Email(email))
		return nil, errWrongCredentials
	}

	user, err := s.userRepo.FindByAuthUserID(ctx, auth.ID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, errWrongCredentials
		}
		return nil, err
	}

	return user, nil
}

// StartSession stores a new session and signs the cookie value for it
func (s *AuthServiceImpl) StartSession(ctx context.Context, user *models.User, userAgent string) (*models.Session, string, error) {
	session := models.NewSession(user.ID, s.ttl, s.now())
	session.UserAgent = userAgent

	if err := s.sessions.Save(ctx, session); err != nil {
		s.log.Error("Failed to store session", logger.UserID(user.ID), logger.Error(err))
		return nil, "", err
	}

	token, err := s.signSession(session)
	if err != nil {
		_ = s.sessions.Delete(ctx, session.ID)
		return nil, "", apperrors.InternalError("failed to sign session", err)
	}

	observability.RecordSession("created")
	s.log.Info("Session started", logger.UserID(user.ID), logger.SessionID(session.ID))

	return session, token, nil
}

// AuthenticateSession checks the cookie signature and that the session is still live
func (s *AuthServiceImpl) AuthenticateSession(ctx context.Context, token string) (*models.Session, *models.User, error) {
	claims, err := s.parseSession(token)
	if err != nil {
		observability.RecordSession("rejected")
		return nil, nil, err
	}

	session, err := s.sessions.Get(ctx, claims.ID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			observability.RecordSession("rejected")
			return nil, nil, apperrors.Unauthorized("session expired", apperrors.ErrSessionExpired)
		}
		return nil, nil, err
	}

	if strconv.FormatUint(uint64(session.UserID), 10) != claims.Subject {
		return nil, nil, apperrors.Unauthorized("session does not match", apperrors.ErrSessionExpired)
	}

	user, err := s.userRepo.FindByID(ctx, session.UserID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, nil, apperrors.Unauthorized("", apperrors.ErrUnauthorized)
		}
		return nil, nil, err
	}

	return session, user, nil
}

// EndSession deletes the session; with everywhere set the user's other sessions go too
func (s *AuthServiceImpl) EndSession(ctx context.Context, session *models.Session, everywhere bool) error {
	log := s.log.WithFields(logger.UserID(session.UserID), logger.SessionID(session.ID))

	if everywhere {
		removed, err := s.sessions.DeleteByUser(ctx, session.UserID, session.ID)
		if err != nil {
			log.Error("Failed to revoke other sessions", logger.Error(err))
			return err
		}
		log.Info("Revoked other sessions", logger.Int("count", removed))
	}

	if err := s.sessions.Delete(ctx, session.ID); err != nil {
		return err
	}

	observability.RecordSession("revoked")
	log.Info("Session ended")
	return nil
}

// HashPassword generates a bcrypt hash
func (s *AuthServiceImpl) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// VerifyPassword compares a bcrypt hash with a plain text password
func (s *AuthServiceImpl) VerifyPassword(hash, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

func (s *AuthServiceImpl) signSession(session *models.Session) (string, error) {
	claims := SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        session.ID,
			Issuer:    sessionIssuer,
			Subject:   strconv.FormatUint(uint64(session.UserID), 10),
			IssuedAt:  jwt.NewNumericDate(session.CreatedAt),
			ExpiresAt: jwt.NewNumericDate(session.ExpiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

func (s *AuthServiceImpl) parseSession(tokenString string) (*SessionClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithIssuer(sessionIssuer), jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, apperrors.Unauthorized("invalid session", err)
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid || claims.ID == "" {
		return nil, apperrors.Unauthorized("invalid session", apperrors.ErrSessionExpired)
	}

	return claims, nil
}
