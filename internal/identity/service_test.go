package identity

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	dErrors "taskhub/pkg/domain-errors"
)

type IdentityServiceSuite struct {
	suite.Suite
	ctx context.Context
	svc *Service
}

func TestIdentityServiceSuite(t *testing.T) {
	suite.Run(t, new(IdentityServiceSuite))
}

func (s *IdentityServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.svc = NewService(NewInMemoryStore(), slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func (s *IdentityServiceSuite) TestCreateAndAuthenticate() {
	_, err := s.svc.CreateUser(s.ctx, CreateUserInput{
		Username: "alice",
		Password: "passw0rd!",
		Email:    "alice@example.com",
	})
	s.Require().NoError(err)

	user, err := s.svc.Authenticate(s.ctx, "alice", "passw0rd!")
	s.Require().NoError(err)
	s.Equal("alice", user.Username)
	s.True(user.Active)

	_, err = s.svc.Authenticate(s.ctx, "alice", "wrong-pass1!")
	s.True(dErrors.Is(err, dErrors.CodeUnauthorized))

	_, err = s.svc.Authenticate(s.ctx, "nobody", "passw0rd!")
	s.True(dErrors.Is(err, dErrors.CodeUnauthorized))
}

func (s *IdentityServiceSuite) TestDeactivatedAccountCannotLogin() {
	_, err := s.svc.CreateUser(s.ctx, CreateUserInput{Username: "bob", Password: "passw0rd!"})
	s.Require().NoError(err)
	s.Require().NoError(s.svc.SetActive(s.ctx, "bob", false))

	_, err = s.svc.Authenticate(s.ctx, "bob", "passw0rd!")
	s.True(dErrors.Is(err, dErrors.CodeForbidden))

	active, err := s.svc.IsActive(s.ctx, "bob")
	s.Require().NoError(err)
	s.False(active)
}

func (s *IdentityServiceSuite) TestIsActiveUnknownUser() {
	active, err := s.svc.IsActive(s.ctx, "ghost")
	s.Require().NoError(err)
	s.False(active)
}

func (s *IdentityServiceSuite) TestGroupMembership() {
	_, err := s.svc.CreateUser(s.ctx, CreateUserInput{Username: "carol", Password: "passw0rd!"})
	s.Require().NoError(err)
	s.Require().NoError(s.svc.CreateGroup(s.ctx, "dev"))
	s.Require().NoError(s.svc.SetGroups(s.ctx, "carol", []string{"dev"}))

	member, err := s.svc.HasGroup(s.ctx, "carol", "dev")
	s.Require().NoError(err)
	s.True(member)

	member, err = s.svc.HasGroup(s.ctx, "carol", "pm")
	s.Require().NoError(err)
	s.False(member)

	s.Error(s.svc.RequireAdmin(s.ctx, "carol"))

	s.Require().NoError(s.svc.CreateGroup(s.ctx, AdminGroup))
	s.Require().NoError(s.svc.SetGroups(s.ctx, "carol", []string{AdminGroup}))
	s.NoError(s.svc.RequireAdmin(s.ctx, "carol"))
}

func (s *IdentityServiceSuite) TestDuplicateUsername() {
	_, err := s.svc.CreateUser(s.ctx, CreateUserInput{Username: "dave", Password: "passw0rd!"})
	s.Require().NoError(err)
	_, err = s.svc.CreateUser(s.ctx, CreateUserInput{Username: "dave", Password: "passw0rd!"})
	s.True(dErrors.Is(err, dErrors.CodeConflict))
}

func (s *IdentityServiceSuite) TestUpdatePasswordPolicy() {
	_, err := s.svc.CreateUser(s.ctx, CreateUserInput{Username: "erin", Password: "passw0rd!"})
	s.Require().NoError(err)

	err = s.svc.UpdatePassword(s.ctx, "erin", "short")
	s.True(dErrors.Is(err, dErrors.CodeValidation))

	s.Require().NoError(s.svc.UpdatePassword(s.ctx, "erin", "n3wpass!!"))
	_, err = s.svc.Authenticate(s.ctx, "erin", "n3wpass!!")
	s.NoError(err)
}

func TestValidPassword(t *testing.T) {
	valid := []string{"passw0rd!", "a1!aaaaa", "ABCdef12#$"}
	for _, p := range valid {
		assert.True(t, ValidPassword(p), p)
	}

	invalid := []string{
		"",
		"short1!",        // too short
		"waytoolong123!?", // too long
		"password!",       // no digit
		"12345678!",       // no letter
		"passw0rdd",       // no special
	}
	for _, p := range invalid {
		assert.False(t, ValidPassword(p), p)
	}
}

func TestCreateUserValidation(t *testing.T) {
	svc := NewService(NewInMemoryStore(), slog.New(slog.NewTextHandler(io.Discard, nil)))

	_, err := svc.CreateUser(context.Background(), CreateUserInput{Username: "bad name", Password: "weak"})
	require.Error(t, err)
	assert.True(t, dErrors.Is(err, dErrors.CodeValidation))
	fields := dErrors.Fields(err)
	assert.Contains(t, fields, "username")
	assert.Contains(t, fields, "password")
}
