package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/wovenlane/wovenlane-backend/internal/users"
	pkgauth "github.com/wovenlane/wovenlane-backend/pkg/auth"
	"github.com/wovenlane/wovenlane-backend/pkg/config"
	"github.com/wovenlane/wovenlane-backend/pkg/db/models"
	"github.com/wovenlane/wovenlane-backend/pkg/enums"
	pkgerrors "github.com/wovenlane/wovenlane-backend/pkg/errors"
	"github.com/wovenlane/wovenlane-backend/pkg/security"
)

type stubUserRepo struct {
	byEmail map[string]*models.User
	byID    map[uuid.UUID]*models.User

	createErr error
	lastLogin *time.Time
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{
		byEmail: map[string]*models.User{},
		byID:    map[uuid.UUID]*models.User{},
	}
}

func (s *stubUserRepo) add(user *models.User) {
	s.byEmail[user.Email] = user
	s.byID[user.ID] = user
}

func (s *stubUserRepo) Create(_ context.Context, dto users.CreateUserDTO) (*models.User, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	if _, exists := s.byEmail[dto.Email]; exists {
		return nil, errors.New(`duplicate key value violates unique constraint "idx_users_email"`)
	}
	user := dto.ToModel()
	s.add(user)
	return user, nil
}

func (s *stubUserRepo) FindByEmail(_ context.Context, email string) (*models.User, error) {
	user, ok := s.byEmail[email]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return user, nil
}

func (s *stubUserRepo) FindByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	user, ok := s.byID[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return user, nil
}

func (s *stubUserRepo) UpdateLastLogin(_ context.Context, _ uuid.UUID, at time.Time) error {
	s.lastLogin = &at
	return nil
}

type stubSessionManager struct {
	started []string
	revoked []string
	err     error
}

func (s *stubSessionManager) Start(_ context.Context, jti, _ string) error {
	if s.err != nil {
		return s.err
	}
	s.started = append(s.started, jti)
	return nil
}

func (s *stubSessionManager) Revoke(_ context.Context, jti string) error {
	if s.err != nil {
		return s.err
	}
	s.revoked = append(s.revoked, jti)
	return nil
}

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "unit-test-secret",
		Issuer:            "wovenlane-test",
		ExpirationMinutes: 15,
		SessionTTLMinutes: 60,
	}
}

func newAuthService(t *testing.T, repo *stubUserRepo, sessions *stubSessionManager) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		UserRepo:       repo,
		SessionManager: sessions,
		JWTConfig:      testJWTConfig(),
		PasswordConfig: config.PasswordConfig{ArgonMemoryKB: 8192, ArgonTime: 1, ArgonParallelism: 1, ArgonSaltLen: 16, ArgonKeyLen: 32},
	})
	require.NoError(t, err)
	return svc
}

func assertCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	var coded *pkgerrors.Error
	require.ErrorAs(t, err, &coded)
	assert.Equal(t, code, coded.Code())
}

func TestRegisterIssuesTokenAndSession(t *testing.T) {
	repo := newStubUserRepo()
	sessions := &stubSessionManager{}
	svc := newAuthService(t, repo, sessions)

	resp, err := svc.Register(context.Background(), RegisterRequest{
		Email:     "  Asha@Example.com ",
		Password:  "correct horse",
		FirstName: "Asha",
		LastName:  "Rao",
	})
	require.NoError(t, err)
	require.NotEmpty(t, resp.Token)
	assert.Equal(t, "asha@example.com", resp.User.Email)
	assert.Equal(t, enums.UserRoleCustomer, resp.User.Role)
	require.Len(t, sessions.started, 1)

	claims, err := pkgauth.ParseAccessToken(testJWTConfig(), resp.Token)
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, claims.UserID)
	assert.Equal(t, sessions.started[0], claims.ID)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	repo := newStubUserRepo()
	svc := newAuthService(t, repo, &stubSessionManager{})
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterRequest{Email: "a@example.com", Password: "password1", FirstName: "A", LastName: "B"})
	require.NoError(t, err)

	_, err = svc.Register(ctx, RegisterRequest{Email: "a@example.com", Password: "password2", FirstName: "C", LastName: "D"})
	assertCode(t, err, pkgerrors.CodeConflict)
}

func TestLoginSuccess(t *testing.T) {
	repo := newStubUserRepo()
	sessions := &stubSessionManager{}
	svc := newAuthService(t, repo, sessions)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterRequest{Email: "asha@example.com", Password: "correct horse", FirstName: "Asha", LastName: "Rao"})
	require.NoError(t, err)

	resp, err := svc.Login(ctx, LoginRequest{Email: "asha@example.com", Password: "correct horse"})
	require.NoError(t, err)
	require.NotEmpty(t, resp.Token)
	require.NotNil(t, repo.lastLogin)
	assert.Len(t, sessions.started, 2)
}

func TestLoginWrongPassword(t *testing.T) {
	repo := newStubUserRepo()
	svc := newAuthService(t, repo, &stubSessionManager{})
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterRequest{Email: "asha@example.com", Password: "correct horse", FirstName: "Asha", LastName: "Rao"})
	require.NoError(t, err)

	_, err = svc.Login(ctx, LoginRequest{Email: "asha@example.com", Password: "wrong"})
	assertCode(t, err, pkgerrors.CodeUnauthorized)
}

func TestLoginUnknownEmailMatchesWrongPassword(t *testing.T) {
	svc := newAuthService(t, newStubUserRepo(), &stubSessionManager{})

	_, err := svc.Login(context.Background(), LoginRequest{Email: "ghost@example.com", Password: "whatever"})
	assertCode(t, err, pkgerrors.CodeUnauthorized)
	assert.Contains(t, err.Error(), invalidCredentialsMessage)
}

func TestLoginInactiveUser(t *testing.T) {
	repo := newStubUserRepo()
	svc := newAuthService(t, repo, &stubSessionManager{})

	hash, err := security.HashPassword("correct horse", config.PasswordConfig{ArgonMemoryKB: 8192, ArgonTime: 1, ArgonParallelism: 1, ArgonSaltLen: 16, ArgonKeyLen: 32})
	require.NoError(t, err)
	repo.add(&models.User{
		ID:           uuid.New(),
		Email:        "frozen@example.com",
		PasswordHash: hash,
		Role:         enums.UserRoleCustomer,
		IsActive:     false,
	})

	_, err = svc.Login(context.Background(), LoginRequest{Email: "frozen@example.com", Password: "correct horse"})
	assertCode(t, err, pkgerrors.CodeUnauthorized)
}

func TestLogoutRevokesSession(t *testing.T) {
	sessions := &stubSessionManager{}
	svc := newAuthService(t, newStubUserRepo(), sessions)

	require.NoError(t, svc.Logout(context.Background(), "some-jti"))
	assert.Equal(t, []string{"some-jti"}, sessions.revoked)

	err := svc.Logout(context.Background(), " ")
	assertCode(t, err, pkgerrors.CodeUnauthorized)
}

func TestMe(t *testing.T) {
	repo := newStubUserRepo()
	svc := newAuthService(t, repo, &stubSessionManager{})
	ctx := context.Background()

	resp, err := svc.Register(ctx, RegisterRequest{Email: "asha@example.com", Password: "correct horse", FirstName: "Asha", LastName: "Rao"})
	require.NoError(t, err)

	me, err := svc.Me(ctx, resp.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "asha@example.com", me.Email)

	_, err = svc.Me(ctx, uuid.New())
	assertCode(t, err, pkgerrors.CodeNotFound)

	_, err = svc.Me(ctx, uuid.Nil)
	assertCode(t, err, pkgerrors.CodeUnauthorized)
}
