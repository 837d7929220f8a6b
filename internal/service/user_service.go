package service

import (
	"context"
	"errors"
	"strings"

	"yatube/internal/models"
	"yatube/internal/repository"
	"yatube/internal/validation"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// ErrInvalidCredentials is wrapped by Authenticate failures.
var ErrInvalidCredentials = errors.New("invalid credentials")

// dummyHash keeps Authenticate's timing similar for unknown usernames.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("timing-equaliser"), bcrypt.DefaultCost)

type UserService struct {
	users repository.UserRepository
}

type SignupInput struct {
	FirstName string
	LastName  string
	Username  string
	Email     string
	Password  string
}

func NewUserService(users repository.UserRepository) *UserService {
	return &UserService{users: users}
}

// Signup validates the registration form and creates the account.
func (s *UserService) Signup(ctx context.Context, in SignupInput) (*models.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	fields := validation.FieldErrors{}

	if in.Username == "" {
		fields.Add("username", validation.MsgRequired)
	} else if err := validation.ValidateUsername(in.Username); err != nil {
		fields.Add("username", err.Error())
	} else if taken, err := s.exists(s.users.GetByUsername(ctx, in.Username)); err != nil {
		return nil, err
	} else if taken {
		fields.Add("username", "A user with that username already exists.")
	}

	if in.Email == "" {
		fields.Add("email", validation.MsgRequired)
	} else if err := validation.ValidateEmail(in.Email); err != nil {
		fields.Add("email", err.Error())
	} else if taken, err := s.exists(s.users.GetByEmail(ctx, in.Email)); err != nil {
		return nil, err
	} else if taken {
		fields.Add("email", "A user with that email already exists.")
	}

	if in.Password == "" {
		fields.Add("password", validation.MsgRequired)
	} else if err := validation.ValidatePassword(in.Password); err != nil {
		fields.Add("password", err.Error())
	}

	if fields.Any() {
		return nil, models.NewFieldValidationError(fields)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	user := &models.User{
		Username:  in.Username,
		Email:     in.Email,
		Password:  string(hashed),
		FirstName: strings.TrimSpace(in.FirstName),
		LastName:  strings.TrimSpace(in.LastName),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, models.NewInternalError(err)
	}
	return user, nil
}

func (s *UserService) exists(_ *models.User, err error) (bool, error) {
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return false, nil
	default:
		return false, models.NewInternalError(err)
	}
}

// Authenticate checks a username/password pair.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	invalid := &models.AppError{
		Code:    models.CodeUnauthorized,
		Message: "Please enter a correct username and password.",
		Err:     ErrInvalidCredentials,
	}

	user, err := s.users.GetByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		return nil, invalid
	}
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, invalid
	}
	return user, nil
}

// GetUser loads the account behind an authenticated session.
func (s *UserService) GetUser(ctx context.Context, id uint) (*models.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, translate(err, "User", id)
	}
	return user, nil
}
