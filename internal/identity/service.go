package identity

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"unicode"

	"golang.org/x/crypto/bcrypt"

	dErrors "taskhub/pkg/domain-errors"
	"taskhub/pkg/platform/sentinel"
)

var usernameRe = regexp.MustCompile(`^[A-Za-z0-9_]{1,32}$`)

// Service owns account lifecycle and answers the permission questions the task
// core asks: is this account active, and does it belong to a group.
type Service struct {
	store  Store
	logger *slog.Logger
}

func NewService(store Store, logger *slog.Logger) *Service {
	return &Service{store: store, logger: logger}
}

// CreateUserInput carries the fields accepted when provisioning an account.
type CreateUserInput struct {
	Username string   `json:"username"`
	Password string   `json:"password"`
	Email    string   `json:"email"`
	Active   *bool    `json:"active"`
	Groups   []string `json:"groups"`
}

// CreateUser provisions an account. Accounts default to active.
func (s *Service) CreateUser(ctx context.Context, input CreateUserInput) (User, error) {
	fields := map[string]string{}
	if !usernameRe.MatchString(input.Username) {
		fields["username"] = "username must be 1-32 alphanumeric or underscore characters"
	}
	if !ValidPassword(input.Password) {
		fields["password"] = "password must be 8-10 characters with at least one letter, one digit and one special character"
	}
	if len(fields) > 0 {
		return User{}, dErrors.NewValidation(fields)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, dErrors.Wrap(err, dErrors.CodeInternal, "could not hash password")
	}

	user := User{
		Username:     input.Username,
		Email:        input.Email,
		Active:       input.Active == nil || *input.Active,
		PasswordHash: string(hash),
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, sentinel.ErrDuplicate) {
			return User{}, dErrors.New(dErrors.CodeConflict, "username already exists")
		}
		return User{}, dErrors.Wrap(err, dErrors.CodeInternal, "could not create user")
	}

	if len(input.Groups) > 0 {
		if err := s.SetGroups(ctx, input.Username, input.Groups); err != nil {
			return User{}, err
		}
		user.Groups = input.Groups
	}
	return user, nil
}

// Authenticate verifies credentials and the active flag.
func (s *Service) Authenticate(ctx context.Context, username, password string) (User, error) {
	user, err := s.store.GetUser(ctx, username)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return User{}, dErrors.New(dErrors.CodeUnauthorized, "invalid username or password")
		}
		return User{}, dErrors.Wrap(err, dErrors.CodeInternal, "could not load user")
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return User{}, dErrors.New(dErrors.CodeUnauthorized, "invalid username or password")
	}
	if !user.Active {
		return User{}, dErrors.New(dErrors.CodeForbidden, "account is deactivated")
	}
	return user, nil
}

// IsActive reports whether the account exists and is active. Unknown accounts
// are simply inactive; the caller fails closed either way.
func (s *Service) IsActive(ctx context.Context, username string) (bool, error) {
	user, err := s.store.GetUser(ctx, username)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return false, nil
		}
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "could not load user")
	}
	return user.Active, nil
}

// HasGroup reports group membership.
func (s *Service) HasGroup(ctx context.Context, username, group string) (bool, error) {
	member, err := s.store.HasGroup(ctx, username, group)
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "could not check membership")
	}
	return member, nil
}

// GetUser returns an account by username.
func (s *Service) GetUser(ctx context.Context, username string) (User, error) {
	user, err := s.store.GetUser(ctx, username)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return User{}, dErrors.New(dErrors.CodeNotFound, "user not found")
		}
		return User{}, dErrors.Wrap(err, dErrors.CodeInternal, "could not load user")
	}
	return user, nil
}

// Email returns the registered address for an account, empty when unset.
func (s *Service) Email(ctx context.Context, username string) (string, error) {
	user, err := s.store.GetUser(ctx, username)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return "", dErrors.New(dErrors.CodeNotFound, "user not found")
		}
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "could not load user")
	}
	return user.Email, nil
}

// RequireAdmin fails with Forbidden unless the actor belongs to the admin group.
func (s *Service) RequireAdmin(ctx context.Context, actor string) error {
	isAdmin, err := s.HasGroup(ctx, actor, AdminGroup)
	if err != nil {
		return err
	}
	if !isAdmin {
		return dErrors.New(dErrors.CodeForbidden, "admin group required")
	}
	return nil
}

// UpdateEmail changes the registered address.
func (s *Service) UpdateEmail(ctx context.Context, username, email string) error {
	return s.mutateUser(ctx, username, func(user *User) error {
		user.Email = email
		return nil
	})
}

// UpdatePassword re-hashes and stores a new password after policy checks.
func (s *Service) UpdatePassword(ctx context.Context, username, password string) error {
	if !ValidPassword(password) {
		return dErrors.NewValidation(map[string]string{
			"password": "password must be 8-10 characters with at least one letter, one digit and one special character",
		})
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "could not hash password")
	}
	return s.mutateUser(ctx, username, func(user *User) error {
		user.PasswordHash = string(hash)
		return nil
	})
}

// SetActive flips the active flag; deactivated accounts fail every permission
// check until reactivated.
func (s *Service) SetActive(ctx context.Context, username string, active bool) error {
	return s.mutateUser(ctx, username, func(user *User) error {
		user.Active = active
		return nil
	})
}

// SetGroups replaces a user's memberships.
func (s *Service) SetGroups(ctx context.Context, username string, groups []string) error {
	if err := s.store.SetGroups(ctx, username, groups); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "user or group not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "could not set groups")
	}
	return nil
}

// CreateGroup registers a new permission group.
func (s *Service) CreateGroup(ctx context.Context, name string) error {
	if !usernameRe.MatchString(name) {
		return dErrors.NewValidation(map[string]string{
			"name": "group name must be 1-32 alphanumeric or underscore characters",
		})
	}
	if err := s.store.CreateGroup(ctx, name); err != nil {
		if errors.Is(err, sentinel.ErrDuplicate) {
			return dErrors.New(dErrors.CodeConflict, "group already exists")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "could not create group")
	}
	return nil
}

func (s *Service) ListUsers(ctx context.Context) ([]User, error) {
	return s.store.ListUsers(ctx)
}

func (s *Service) ListGroups(ctx context.Context) ([]string, error) {
	return s.store.ListGroups(ctx)
}

func (s *Service) mutateUser(ctx context.Context, username string, mutate func(*User) error) error {
	user, err := s.store.GetUser(ctx, username)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "user not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "could not load user")
	}
	if err := mutate(&user); err != nil {
		return err
	}
	if err := s.store.UpdateUser(ctx, user); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "could not update user")
	}
	return nil
}

// ValidPassword enforces the account password policy: 8-10 characters with at
// least one letter, one digit and one special character.
func ValidPassword(password string) bool {
	runes := []rune(password)
	if len(runes) < 8 || len(runes) > 10 {
		return false
	}
	var letter, digit, special bool
	for _, r := range runes {
		switch {
		case unicode.IsLetter(r):
			letter = true
		case unicode.IsDigit(r):
			digit = true
		default:
			special = true
		}
	}
	return letter && digit && special
}
