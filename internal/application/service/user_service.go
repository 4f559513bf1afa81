package service

import (
	"context"

	"github.com/bravo68web/ghcrm/internal/application/dto"
	"github.com/bravo68web/ghcrm/internal/domain/models"
	"github.com/bravo68web/ghcrm/internal/domain/repository"
	"github.com/bravo68web/ghcrm/internal/domain/service"
	apperrors "github.com/bravo68web/ghcrm/pkg/errors"
	"github.com/bravo68web/ghcrm/pkg/logger"
)

// UserService handles account registration and profile lookups
type UserService struct {
	userRepo    repository.UserRepository
	authService service.AuthService
	log         *logger.Logger
}

// NewUserService creates a new UserService instance
func NewUserService(
	userRepo repository.UserRepository,
	authService service.AuthService,
) *UserService {
	return &UserService{
		userRepo:    userRepo,
		authService: authService,
		log:         logger.Get().WithFields(logger.Component("user-service")),
	}
}

// SignUp registers an account. Credentials and profile are written together.
func (s *UserService) SignUp(ctx context.Context, req dto.SignUpRequest) (*models.User, error) {
	if err := req.Validate(); err != nil {
		s.log.Warn("Sign-up validation failed", logger.Error(err))
		return nil, err
	}

	log := s.log.WithFields(logger.Email(req.Email))
	log.Info("Creating new user")

	exists, err := s.userRepo.ExistsByEmail(ctx, req.Email)
	if err != nil {
		log.Error("Failed to check email existence", logger.Error(err))
		return nil, err
	}
	if exists {
		log.Warn("Email already registered")
		return nil, apperrors.Conflict("user with this email already exists", apperrors.ErrUserExists)
	}

	exists, err = s.userRepo.ExistsByPhone(ctx, req.Phone)
	if err != nil {
		log.Error("Failed to check phone existence", logger.Error(err))
		return nil, err
	}
	if exists {
		log.Warn("Phone already registered")
		return nil, apperrors.Conflict("user with this phone already exists", apperrors.ErrUserExists)
	}

	hash, err := s.authService.HashPassword(req.Password)
	if err != nil {
		return nil, apperrors.InternalError("", err)
	}

	auth := &models.AuthUser{Email: req.Email, Password: hash}
	user := &models.User{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Phone:     req.Phone,
	}

	if err := s.userRepo.CreateWithAuth(ctx, auth, user); err != nil {
		if !apperrors.IsConflict(err) {
			log.Error("Failed to create user", logger.Error(err))
		}
		return nil, err
	}

	log.Info("User created", logger.UserID(user.ID))
	return user, nil
}

// GetUser retrieves a user by ID
func (s *UserService) GetUser(ctx context.Context, id uint) (*models.User, error) {
	return s.userRepo.FindByID(ctx, id)
}
