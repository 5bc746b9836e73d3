package services_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	customjwt "github.com/magabrotheeeer/multiuser-auth/internal/lib/jwt"
	"github.com/magabrotheeeer/multiuser-auth/internal/lib/password"
	"github.com/magabrotheeeer/multiuser-auth/internal/models"
	services "github.com/magabrotheeeer/multiuser-auth/internal/services/auth"
	"github.com/magabrotheeeer/multiuser-auth/internal/storage/repository"
)

// Мок для UserRepository
type UserRepoMock struct {
	mock.Mock
}

func (m *UserRepoMock) CreateUser(ctx context.Context, user models.User) (int64, error) {
	args := m.Called(ctx, user)
	return args.Get(0).(int64), args.Error(1)
}

func (m *UserRepoMock) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *UserRepoMock) MarkUserActive(ctx context.Context, username string) error {
	args := m.Called(ctx, username)
	return args.Error(0)
}

// Мок для jwt.Maker
type JwtMakerMock struct {
	mock.Mock
}

func (m *JwtMakerMock) GenerateToken(username string) (string, error) {
	args := m.Called(username)
	return args.String(0), args.Error(1)
}

func (m *JwtMakerMock) ParseToken(token string) (*customjwt.CustomClaims, error) {
	args := m.Called(token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*customjwt.CustomClaims), args.Error(1)
}

// Мок для Cache
type CacheMock struct {
	mock.Mock
}

func (m *CacheMock) Get(key string, result any) (bool, error) {
	args := m.Called(key, result)
	return args.Bool(0), args.Error(1)
}

func (m *CacheMock) Set(key string, value any, expiration time.Duration) error {
	args := m.Called(key, value, expiration)
	return args.Error(0)
}

func (m *CacheMock) Invalidate(key string) error {
	args := m.Called(key)
	return args.Error(0)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

// passthroughCache кэш, который всегда промахивается и молча принимает записи.
func newPassthroughCache() *CacheMock {
	c := new(CacheMock)
	c.On("Get", mock.Anything, mock.Anything).Return(false, nil).Maybe()
	c.On("Set", mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
	c.On("Invalidate", mock.Anything).Return(nil).Maybe()
	return c
}

func TestAuthService_Register(t *testing.T) {
	createdAt := time.Now().UTC()

	tests := []struct {
		name       string
		email      string
		username   string
		password   string
		setupMocks func(r *UserRepoMock)
		wantErr    error
	}{
		{
			name:     "successful registration",
			email:    "test@example.com",
			username: "testuser",
			password: "password123",
			setupMocks: func(r *UserRepoMock) {
				r.On("CreateUser", mock.Anything, mock.MatchedBy(func(user models.User) bool {
					return user.Email == "test@example.com" &&
						user.Username == "testuser" &&
						user.PasswordHash != "" &&
						user.PasswordHash != "password123" &&
						user.IsActive
				})).Return(int64(1), nil).Once()
				r.On("GetUserByUsername", mock.Anything, "testuser").Return(&models.User{
					ID:        1,
					Email:     "test@example.com",
					Username:  "testuser",
					IsActive:  true,
					CreatedAt: createdAt,
				}, nil).Once()
			},
		},
		{
			name:     "duplicate user",
			email:    "test@example.com",
			username: "testuser",
			password: "password123",
			setupMocks: func(r *UserRepoMock) {
				r.On("CreateUser", mock.Anything, mock.Anything).
					Return(int64(0), repository.ErrUserAlreadyExists).Once()
			},
			wantErr: services.ErrUserAlreadyExists,
		},
		{
			name:     "repository error",
			email:    "test@example.com",
			username: "testuser",
			password: "password123",
			setupMocks: func(r *UserRepoMock) {
				r.On("CreateUser", mock.Anything, mock.Anything).
					Return(int64(0), errors.New("db error")).Once()
			},
			wantErr: errors.New("db error"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(UserRepoMock)
			jwtMock := new(JwtMakerMock)
			tt.setupMocks(repo)

			svc := services.NewAuthService(repo, jwtMock, newPassthroughCache(), 30*time.Minute, newNoopLogger())
			user, err := svc.Register(context.Background(), tt.email, tt.username, tt.password)

			if tt.wantErr != nil {
				require.Error(t, err)
				assert.Nil(t, user)
				assert.Contains(t, err.Error(), tt.wantErr.Error())
			} else {
				require.NoError(t, err)
				require.NotNil(t, user)
				assert.Equal(t, int64(1), user.ID)
				assert.True(t, user.IsActive)
			}
			repo.AssertExpectations(t)
		})
	}
}

func TestAuthService_Register_DuplicateRegardlessOfPassword(t *testing.T) {
	repo := new(UserRepoMock)
	repo.On("CreateUser", mock.Anything, mock.Anything).
		Return(int64(0), repository.ErrUserAlreadyExists).Twice()

	svc := services.NewAuthService(repo, new(JwtMakerMock), newPassthroughCache(), 30*time.Minute, newNoopLogger())

	_, err := svc.Register(context.Background(), "a@x.com", "alice", "pw1")
	assert.ErrorIs(t, err, services.ErrUserAlreadyExists)

	_, err = svc.Register(context.Background(), "b@x.com", "alice", "completely-different-password")
	assert.ErrorIs(t, err, services.ErrUserAlreadyExists)
}

func TestAuthService_Login(t *testing.T) {
	hashed, err := password.GetHash("password123")
	require.NoError(t, err)

	tests := []struct {
		name       string
		username   string
		password   string
		setupMocks func(r *UserRepoMock, j *JwtMakerMock)
		wantToken  string
		wantErr    error
	}{
		{
			name:     "successful login",
			username: "testuser",
			password: "password123",
			setupMocks: func(r *UserRepoMock, j *JwtMakerMock) {
				r.On("GetUserByUsername", mock.Anything, "testuser").Return(&models.User{
					ID:           1,
					Username:     "testuser",
					PasswordHash: hashed,
				}, nil).Once()
				r.On("MarkUserActive", mock.Anything, "testuser").Return(nil).Once()
				j.On("GenerateToken", "testuser").Return("signed-token", nil).Once()
			},
			wantToken: "signed-token",
		},
		{
			name:     "unknown user",
			username: "ghost",
			password: "password123",
			setupMocks: func(r *UserRepoMock, _ *JwtMakerMock) {
				r.On("GetUserByUsername", mock.Anything, "ghost").
					Return(nil, repository.ErrUserNotFound).Once()
			},
			wantErr: services.ErrUserNotFound,
		},
		{
			name:     "wrong password",
			username: "testuser",
			password: "wrongpassword",
			setupMocks: func(r *UserRepoMock, _ *JwtMakerMock) {
				r.On("GetUserByUsername", mock.Anything, "testuser").Return(&models.User{
					ID:           1,
					Username:     "testuser",
					PasswordHash: hashed,
				}, nil).Once()
			},
			wantErr: services.ErrInvalidCredentials,
		},
		{
			name:     "mark active fails",
			username: "testuser",
			password: "password123",
			setupMocks: func(r *UserRepoMock, _ *JwtMakerMock) {
				r.On("GetUserByUsername", mock.Anything, "testuser").Return(&models.User{
					ID:           1,
					Username:     "testuser",
					PasswordHash: hashed,
				}, nil).Once()
				r.On("MarkUserActive", mock.Anything, "testuser").
					Return(errors.New("db error")).Once()
			},
			wantErr: errors.New("db error"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(UserRepoMock)
			jwtMock := new(JwtMakerMock)
			tt.setupMocks(repo, jwtMock)

			svc := services.NewAuthService(repo, jwtMock, newPassthroughCache(), 30*time.Minute, newNoopLogger())
			token, err := svc.Login(context.Background(), tt.username, tt.password)

			if tt.wantErr != nil {
				require.Error(t, err)
				assert.Empty(t, token)
				assert.Contains(t, err.Error(), tt.wantErr.Error())
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantToken, token)
			}
			repo.AssertExpectations(t)
			jwtMock.AssertExpectations(t)
		})
	}
}

func TestAuthService_ResolveUser(t *testing.T) {
	tests := []struct {
		name       string
		token      string
		setupMocks func(r *UserRepoMock, j *JwtMakerMock, c *CacheMock)
		wantUser   string
		wantErr    error
	}{
		{
			name:  "valid token, cache miss",
			token: "valid-token",
			setupMocks: func(r *UserRepoMock, j *JwtMakerMock, c *CacheMock) {
				j.On("ParseToken", "valid-token").
					Return(&customjwt.CustomClaims{Username: "testuser"}, nil).Once()
				c.On("Get", "user:testuser", mock.Anything).Return(false, nil).Once()
				r.On("GetUserByUsername", mock.Anything, "testuser").Return(&models.User{
					ID:       1,
					Username: "testuser",
					IsActive: true,
				}, nil).Once()
				c.On("Set", "user:testuser", mock.Anything, 30*time.Minute).Return(nil).Once()
			},
			wantUser: "testuser",
		},
		{
			name:  "valid token, cache hit",
			token: "cached-token",
			setupMocks: func(_ *UserRepoMock, j *JwtMakerMock, c *CacheMock) {
				j.On("ParseToken", "cached-token").
					Return(&customjwt.CustomClaims{Username: "testuser"}, nil).Once()
				c.On("Get", "user:testuser", mock.Anything).
					Run(func(args mock.Arguments) {
						view := args.Get(1).(*models.UserView)
						*view = models.UserView{ID: 1, Username: "testuser", IsActive: true}
					}).Return(true, nil).Once()
			},
			wantUser: "testuser",
		},
		{
			name:  "expired token",
			token: "expired-token",
			setupMocks: func(_ *UserRepoMock, j *JwtMakerMock, _ *CacheMock) {
				j.On("ParseToken", "expired-token").
					Return(nil, customjwt.ErrTokenExpired).Once()
			},
			wantErr: services.ErrTokenExpired,
		},
		{
			name:  "invalid token",
			token: "garbage",
			setupMocks: func(_ *UserRepoMock, j *JwtMakerMock, _ *CacheMock) {
				j.On("ParseToken", "garbage").
					Return(nil, customjwt.ErrTokenInvalid).Once()
			},
			wantErr: services.ErrInvalidToken,
		},
		{
			name:  "subject no longer exists",
			token: "orphan-token",
			setupMocks: func(r *UserRepoMock, j *JwtMakerMock, c *CacheMock) {
				j.On("ParseToken", "orphan-token").
					Return(&customjwt.CustomClaims{Username: "deleted"}, nil).Once()
				c.On("Get", "user:deleted", mock.Anything).Return(false, nil).Once()
				r.On("GetUserByUsername", mock.Anything, "deleted").
					Return(nil, repository.ErrUserNotFound).Once()
			},
			wantErr: services.ErrUserNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(UserRepoMock)
			jwtMock := new(JwtMakerMock)
			cacheMock := new(CacheMock)
			tt.setupMocks(repo, jwtMock, cacheMock)

			svc := services.NewAuthService(repo, jwtMock, cacheMock, 30*time.Minute, newNoopLogger())
			user, err := svc.ResolveUser(context.Background(), tt.token)

			if tt.wantErr != nil {
				require.Error(t, err)
				assert.Nil(t, user)
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				require.NotNil(t, user)
				assert.Equal(t, tt.wantUser, user.Username)
			}
			repo.AssertExpectations(t)
			jwtMock.AssertExpectations(t)
			cacheMock.AssertExpectations(t)
		})
	}
}

// В кэш уходит только публичное представление: хэш пароля ни при логине,
// ни при резолве токена в Redis не попадает.
func TestAuthService_CacheNeverStoresPasswordHash(t *testing.T) {
	hashed, err := password.GetHash("password123")
	require.NoError(t, err)

	user := &models.User{ID: 1, Username: "alice", PasswordHash: hashed, IsActive: true}

	repo := new(UserRepoMock)
	repo.On("GetUserByUsername", mock.Anything, "alice").Return(user, nil)
	repo.On("MarkUserActive", mock.Anything, "alice").Return(nil)

	var payloads [][]byte
	cacheMock := new(CacheMock)
	cacheMock.On("Get", mock.Anything, mock.Anything).Return(false, nil).Maybe()
	cacheMock.On("Set", "user:alice", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			raw, merr := json.Marshal(args.Get(1))
			require.NoError(t, merr)
			payloads = append(payloads, raw)
		}).Return(nil)

	maker := customjwt.NewJWTMaker("cache_secret_key", time.Minute)
	svc := services.NewAuthService(repo, maker, cacheMock, time.Minute, newNoopLogger())

	token, err := svc.Login(context.Background(), "alice", "password123")
	require.NoError(t, err)

	_, err = svc.ResolveUser(context.Background(), token)
	require.NoError(t, err)

	require.NotEmpty(t, payloads)
	for _, raw := range payloads {
		assert.NotContains(t, string(raw), hashed)
		assert.NotContains(t, string(raw), "hashed_password")
		assert.NotContains(t, string(raw), "PasswordHash")

		var view models.UserView
		require.NoError(t, json.Unmarshal(raw, &view))
		assert.Equal(t, "alice", view.Username)
	}
}

// Проверяет полный цикл с настоящим JWT maker: логин выдаёт токен,
// токен резолвится в того же пользователя, истёкший токен отклоняется.
func TestAuthService_LoginAndResolve_RealMaker(t *testing.T) {
	hashed, err := password.GetHash("pw1")
	require.NoError(t, err)

	user := &models.User{ID: 1, Username: "alice", PasswordHash: hashed, IsActive: true}

	repo := new(UserRepoMock)
	repo.On("GetUserByUsername", mock.Anything, "alice").Return(user, nil)
	repo.On("MarkUserActive", mock.Anything, "alice").Return(nil)

	maker := customjwt.NewJWTMaker("integration_secret_key", time.Minute)
	svc := services.NewAuthService(repo, maker, newPassthroughCache(), time.Minute, newNoopLogger())

	token, err := svc.Login(context.Background(), "alice", "pw1")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	resolved, err := svc.ResolveUser(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "alice", resolved.Username)

	expiredMaker := customjwt.NewJWTMaker("integration_secret_key", -time.Minute)
	expiredSvc := services.NewAuthService(repo, expiredMaker, newPassthroughCache(), time.Minute, newNoopLogger())
	expiredToken, err := expiredSvc.Login(context.Background(), "alice", "pw1")
	require.NoError(t, err)

	_, err = expiredSvc.ResolveUser(context.Background(), expiredToken)
	assert.ErrorIs(t, err, services.ErrTokenExpired)
}
