package actions

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"taskmanager/models"
	"taskmanager/store"
	"taskmanager/utils"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

const (
	msgFieldsRequired = "All fields are required"
	msgUserExists     = "User already exists"
	msgRegisterFailed = "Failed to register user"
)

const notifyTimeout = 10 * time.Second

type Hasher interface {
	Hash(password string) (string, error)
	Verify(password, hash string) bool
}

// Notifier sends the welcome mail after registration.
type Notifier interface {
	SendWelcome(ctx context.Context, email, firstName string) error
}

type UserService struct {
	store    store.Store
	hasher   Hasher
	notifier Notifier
	log      *slog.Logger
}

// NewUserService builds the registration service. notifier may be nil.
func NewUserService(st store.Store, hasher Hasher, notifier Notifier, log *slog.Logger) *UserService {
	return &UserService{store: st, hasher: hasher, notifier: notifier, log: log}
}

type RegisterInput struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
}

// RegisterUser creates an account. It does not sign the user in.
func (s *UserService) RegisterUser(ctx context.Context, in RegisterInput) Result {
	if !utils.AllPresent(in.FirstName, in.LastName, in.Email) || in.Password == "" {
		return fail(msgFieldsRequired)
	}
	email := utils.NormalizeEmail(in.Email)

	_, err := s.store.FindUserByEmail(ctx, email)
	switch {
	case err == nil:
		return fail(msgUserExists)
	case !errors.Is(err, store.ErrNotFound):
		s.log.Error("registration lookup failed", "user", email, "error", err)
		return fail(msgRegisterFailed)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		s.log.Error("hashing password failed", "user", email, "error", err)
		return fail(msgRegisterFailed)
	}

	user := &models.User{
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		Email:        email,
		PasswordHash: hash,
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return fail(msgUserExists)
		}
		s.log.Error("creating user failed", "user", email, "error", err)
		return fail(msgRegisterFailed)
	}

	s.log.Info("user registered", "user", email)
	s.welcome(ctx, user)
	return succeed()
}

func (s *UserService) welcome(ctx context.Context, user *models.User) {
	if s.notifier == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()

	if err := s.notifier.SendWelcome(ctx, user.Email, user.FirstName); err != nil {
		s.log.Warn("welcome email failed", "user", user.Email, "error", err)
	}
}

// Authenticate checks an email/password pair and returns the matching user.
// Unknown emails and wrong passwords both return ErrInvalidCredentials.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	email = utils.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := s.store.FindUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, &PersistenceError{Op: "find user", Err: err}
	}
	if !s.hasher.Verify(password, user.PasswordHash) {
		s.log.Info("password verification failed", "user", email)
		return nil, ErrInvalidCredentials
	}
	return user, nil
}
