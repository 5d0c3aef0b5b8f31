package catalog

import (
	"context"
	"strings"

	"Playshare/core/auth"
	"Playshare/logger"
	"Playshare/model"
	"Playshare/repository"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// SignupInput is the account creation form.
type SignupInput struct {
	Username  string `form:"username" validate:"required,max=150,username"`
	Password1 string `form:"password1" validate:"required,min=8"`
	Password2 string `form:"password2" validate:"required,eqfield=Password1"`
}

// LoginInput is the login form.
type LoginInput struct {
	Username string `form:"username" validate:"required"`
	Password string `form:"password" validate:"required"`
}

// Signup creates a regular account.
func (s *Service) Signup(ctx context.Context, in SignupInput) (*model.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	verr := &ValidationError{}
	s.check(in, verr)
	if err := verr.orNil(); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(in.Password1)
	if err != nil {
		return nil, errors.Wrap(err, "failed to hash password")
	}
	user := &model.User{Username: in.Username, PasswordHash: hash}
	if err := s.repos.Users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateUser) {
			verr.add("username", "A user with that username already exists.")
			return nil, verr
		}
		return nil, errors.Wrap(err, "failed to create user")
	}

	logger.Info("User signed up", logger.Int64("userId", user.ID), logger.String("username", user.Username))
	return user, nil
}

// Login checks the credentials and returns the account.
func (s *Service) Login(ctx context.Context, in LoginInput) (*model.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	verr := &ValidationError{}
	s.check(in, verr)
	if err := verr.orNil(); err != nil {
		return nil, err
	}

	user, err := s.repos.Users.GetByUsername(ctx, in.Username)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load user")
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}
	ok, err := auth.CheckPassword(in.Password, user.PasswordHash)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to verify password for %s", user.Username)
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// GetUser returns the account for id, or ErrNotFound.
func (s *Service) GetUser(ctx context.Context, id int64) (*model.User, error) {
	user, err := s.repos.Users.GetByID(ctx, id)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load user %d", id)
	}
	if user == nil {
		return nil, ErrNotFound
	}
	return user, nil
}

// SetSuperuser grants or revokes superuser rights by username.
func (s *Service) SetSuperuser(ctx context.Context, username string, superuser bool) (*model.User, error) {
	user, err := s.userByName(ctx, username)
	if err != nil {
		return nil, err
	}
	if err := s.repos.Users.SetSuperuser(ctx, user.ID, superuser); err != nil {
		return nil, errors.Wrapf(err, "failed to update user %s", username)
	}
	user.IsSuperuser = superuser
	return user, nil
}

// DeleteUser removes an account. Its playlists and songs stay, without an owner.
func (s *Service) DeleteUser(ctx context.Context, username string) error {
	user, err := s.userByName(ctx, username)
	if err != nil {
		return err
	}
	if err := s.repos.Users.Delete(ctx, user.ID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return errors.Wrapf(err, "failed to delete user %s", username)
	}
	logger.Info("User deleted", logger.Int64("userId", user.ID), logger.String("username", username))
	return nil
}

func (s *Service) userByName(ctx context.Context, username string) (*model.User, error) {
	user, err := s.repos.Users.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load user %s", username)
	}
	if user == nil {
		return nil, ErrNotFound
	}
	return user, nil
}
