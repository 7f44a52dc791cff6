package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lapzone/lapzone-backend/pkg/config"
	"github.com/lapzone/lapzone-backend/pkg/db/models"
	pkgerrors "github.com/lapzone/lapzone-backend/pkg/errors"
	"github.com/lapzone/lapzone-backend/pkg/security"
)

// ProfileInput holds the data available when checkout creates a profile.
type ProfileInput struct {
	Email     string
	Username  string
	Password  string
	FirstName string
	LastName  string
	Phone     string
}

// Service exposes user identity operations for checkout and auth.
type Service interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetOrCreateByEmail(ctx context.Context, input ProfileInput) (*models.User, bool, error)
	BackfillEmptyNames(ctx context.Context, user *models.User, firstName, lastName string) error
	VerifyCredentials(ctx context.Context, email, password string) (*models.User, error)
}

type userRepo interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	UpdateNames(ctx context.Context, id uuid.UUID, firstName, lastName string) error
}

type service struct {
	repo        userRepo
	passwordCfg config.PasswordConfig
}

// NewService constructs the users service.
func NewService(repo userRepo, passwordCfg config.PasswordConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("users repository required")
	}
	return &service{repo: repo, passwordCfg: passwordCfg}, nil
}

func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	return user, nil
}

func (s *service) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if strings.TrimSpace(email) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email required")
	}
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	return user, nil
}

// GetOrCreateByEmail returns the existing user for the email or creates a
// fresh profile. Existing users are returned untouched; the password in
// the input is hashed only for newly created rows.
func (s *service) GetOrCreateByEmail(ctx context.Context, input ProfileInput) (*models.User, bool, error) {
	email := NormalizeEmail(input.Email)
	if email == "" {
		return nil, false, pkgerrors.New(pkgerrors.CodeValidation, "email required")
	}

	existing, err := s.repo.FindByEmail(ctx, email)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup user")
	}

	hash := ""
	if input.Password != "" {
		hash, err = security.HashPassword(input.Password, s.passwordCfg)
		if err != nil {
			return nil, false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
		}
	}

	username := strings.TrimSpace(input.Username)
	if username == "" {
		username = email
	}

	user := &models.User{
		ID:           uuid.New(),
		Email:        email,
		Username:     username,
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(input.FirstName),
		LastName:     strings.TrimSpace(input.LastName),
		IsActive:     true,
	}
	if phone := strings.TrimSpace(input.Phone); phone != "" {
		user.Phone = &phone
	}

	created, err := s.repo.Create(ctx, user)
	if err != nil {
		return nil, false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create user")
	}
	return created, true, nil
}

// BackfillEmptyNames fills first/last name only when the stored value is
// empty. Names an authenticated user already chose are never overwritten.
func (s *service) BackfillEmptyNames(ctx context.Context, user *models.User, firstName, lastName string) error {
	if user == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user required")
	}

	changed := false
	if user.FirstName == "" && strings.TrimSpace(firstName) != "" {
		user.FirstName = strings.TrimSpace(firstName)
		changed = true
	}
	if user.LastName == "" && strings.TrimSpace(lastName) != "" {
		user.LastName = strings.TrimSpace(lastName)
		changed = true
	}
	if !changed {
		return nil
	}

	if err := s.repo.UpdateNames(ctx, user.ID, user.FirstName, user.LastName); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update user names")
	}
	return nil
}

// VerifyCredentials checks an email/password pair for login.
func (s *service) VerifyCredentials(ctx context.Context, email, password string) (*models.User, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
	}

	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup user")
	}
	if !user.IsActive || user.PasswordHash == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
	}

	ok, err := security.VerifyPassword(password, user.PasswordHash)
	if err != nil || !ok {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
	}
	return user, nil
}
