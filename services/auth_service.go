package services

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"jaryo/logger"
	"jaryo/models"
	"jaryo/repositories"
	"jaryo/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const minPasswordLength = 6

type SignupInput struct {
	Email    string
	Password string
	Name     string
}

type LoginInput struct {
	Email    string
	Password string
}

type AuthUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

type LoginOutput struct {
	Token     string    `json:"-"`
	ExpiresAt time.Time `json:"-"`
	User      AuthUser  `json:"user"`
}

// Principal is the authenticated caller resolved from a session token.
type Principal struct {
	UserID    string
	Email     string
	Name      string
	Role      string
	SessionID string
}

func (p Principal) IsAdmin() bool {
	return p.Role == models.RoleAdmin
}

func (p Principal) User() AuthUser {
	return AuthUser{ID: p.UserID, Email: p.Email, Name: p.Name, Role: p.Role}
}

type ProfileOutput struct {
	ID        string     `json:"id"`
	Email     string     `json:"email"`
	Name      string     `json:"name"`
	Role      string     `json:"role"`
	CreatedAt time.Time  `json:"created_at"`
	LastLogin *time.Time `json:"last_login"`
}

type AuthService interface {
	Signup(ctx context.Context, in SignupInput) (AuthUser, error)
	Login(ctx context.Context, in LoginInput) (LoginOutput, error)
	Logout(ctx context.Context, token string) error
	Authenticate(ctx context.Context, token string) (Principal, error)
	GetProfile(ctx context.Context, userID string) (ProfileOutput, error)
	EnsureAdmin(ctx context.Context, email string, password string, name string) error
}

type authService struct {
	txManager repositories.TxManager
	users     repositories.UserRepository
	sessions  repositories.SessionRepository
	signer    *utils.TokenSigner
	ttl       time.Duration
	now       func() time.Time
}

func NewAuthService(
	txManager repositories.TxManager,
	users repositories.UserRepository,
	sessions repositories.SessionRepository,
	signer *utils.TokenSigner,
	ttl time.Duration,
) AuthService {
	return &authService{
		txManager: txManager,
		users:     users,
		sessions:  sessions,
		signer:    signer,
		ttl:       ttl,
		now:       time.Now,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *authService) Signup(ctx context.Context, in SignupInput) (AuthUser, error) {
	email := normalizeEmail(in.Email)
	name := strings.TrimSpace(in.Name)
	if email == "" || in.Password == "" || name == "" {
		return AuthUser{}, ValidationError("email, password and name are required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return AuthUser{}, ValidationError("invalid email address")
	}
	if len(in.Password) < minPasswordLength {
		return AuthUser{}, newAppErrorWithData(KindValidation, "password is too short", map[string]int{"min_length": minPasswordLength}, nil)
	}
	return s.createUser(ctx, email, in.Password, name, models.RoleUser)
}

func (s *authService) createUser(ctx context.Context, email string, password string, name string, role string) (AuthUser, error) {
	hashed, err := utils.HashPassword(password)
	if err != nil {
		return AuthUser{}, newAppError(KindInternal, "failed to hash password", err)
	}

	user := models.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hashed,
		Name:         name,
		Role:         role,
		IsActive:     true,
	}
	err = s.txManager.WithTransaction(ctx, func(tx *gorm.DB) error {
		count, err := s.users.CountByEmail(ctx, tx, email)
		if err != nil {
			return newAppError(KindInternal, "failed to check email", err)
		}
		if count > 0 {
			return newAppError(KindDuplicate, "email already registered", nil)
		}
		if err := s.users.Create(ctx, tx, &user); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return newAppError(KindDuplicate, "email already registered", err)
			}
			return newAppError(KindInternal, "failed to create user", err)
		}
		return nil
	})
	if err != nil {
		return AuthUser{}, asAppError(err, "failed to create user")
	}
	return AuthUser{ID: user.ID, Email: user.Email, Name: user.Name, Role: user.Role}, nil
}

func (s *authService) Login(ctx context.Context, in LoginInput) (LoginOutput, error) {
	email := normalizeEmail(in.Email)
	if email == "" || in.Password == "" {
		return LoginOutput{}, ValidationError("email and password are required")
	}

	user, err := s.users.GetByEmail(ctx, nil, email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return LoginOutput{}, invalidCredentials()
	}
	if err != nil {
		return LoginOutput{}, newAppError(KindInternal, "failed to query user", err)
	}
	if !user.IsActive || !utils.CheckPassword(in.Password, user.PasswordHash) {
		return LoginOutput{}, invalidCredentials()
	}

	now := s.now()
	session := models.UserSession{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		ExpiresAt: now.Add(s.ttl),
		CreatedAt: now,
	}
	if err := s.sessions.Create(ctx, &session); err != nil {
		return LoginOutput{}, newAppError(KindInternal, "failed to create session", err)
	}

	token, err := s.signer.Sign(session.ID, user.ID, user.Role, session.ExpiresAt)
	if err != nil {
		return LoginOutput{}, newAppError(KindInternal, "failed to sign session", err)
	}

	if err := s.users.UpdateLastLogin(ctx, nil, user.ID, now); err != nil {
		logger.Warn("failed to record last login", zap.String("user_id", user.ID), zap.Error(err))
	}
	logger.Info("user logged in", zap.String("user_id", user.ID))

	return LoginOutput{
		Token:     token,
		ExpiresAt: session.ExpiresAt,
		User:      AuthUser{ID: user.ID, Email: user.Email, Name: user.Name, Role: user.Role},
	}, nil
}

// Logout drops the server-side session. Unparseable or already-gone tokens are not errors.
func (s *authService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	claims, err := s.signer.Parse(token)
	if err != nil {
		return nil
	}
	if err := s.sessions.Delete(ctx, claims.SessionID); err != nil && !errors.Is(err, repositories.ErrSessionNotFound) {
		return newAppError(KindInternal, "failed to delete session", err)
	}
	return nil
}

func (s *authService) Authenticate(ctx context.Context, token string) (Principal, error) {
	if token == "" {
		return Principal{}, newAppError(KindAuth, "authentication required", nil)
	}
	claims, err := s.signer.Parse(token)
	if err != nil {
		return Principal{}, newAppError(KindAuth, "invalid or expired session", err)
	}

	session, err := s.sessions.Get(ctx, claims.SessionID)
	if errors.Is(err, repositories.ErrSessionNotFound) {
		return Principal{}, newAppError(KindAuth, "invalid or expired session", nil)
	}
	if err != nil {
		return Principal{}, newAppError(KindInternal, "failed to load session", err)
	}
	if session.Expired(s.now()) {
		if err := s.sessions.Delete(ctx, session.ID); err != nil && !errors.Is(err, repositories.ErrSessionNotFound) {
			logger.Warn("failed to drop expired session", zap.String("session_id", session.ID), zap.Error(err))
		}
		return Principal{}, newAppError(KindAuth, "invalid or expired session", nil)
	}
	if session.UserID != claims.UserID {
		return Principal{}, newAppError(KindAuth, "invalid or expired session", nil)
	}

	user, err := s.users.GetByID(ctx, nil, session.UserID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Principal{}, newAppError(KindAuth, "invalid or expired session", nil)
	}
	if err != nil {
		return Principal{}, newAppError(KindInternal, "failed to query user", err)
	}
	if !user.IsActive {
		return Principal{}, newAppError(KindAuth, "account is disabled", nil)
	}

	return Principal{
		UserID:    user.ID,
		Email:     user.Email,
		Name:      user.Name,
		Role:      user.Role,
		SessionID: session.ID,
	}, nil
}

func (s *authService) GetProfile(ctx context.Context, userID string) (ProfileOutput, error) {
	user, err := s.users.GetByID(ctx, nil, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ProfileOutput{}, newAppError(KindNotFound, "user not found", nil)
	}
	if err != nil {
		return ProfileOutput{}, newAppError(KindInternal, "failed to query user", err)
	}
	return ProfileOutput{
		ID:        user.ID,
		Email:     user.Email,
		Name:      user.Name,
		Role:      user.Role,
		CreatedAt: user.CreatedAt,
		LastLogin: user.LastLogin,
	}, nil
}

// EnsureAdmin creates an admin account when email and password are set and no user owns the email.
func (s *authService) EnsureAdmin(ctx context.Context, email string, password string, name string) error {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil
	}
	if strings.TrimSpace(name) == "" {
		name = "admin"
	}
	_, err := s.createUser(ctx, email, password, name, models.RoleAdmin)
	if IsKind(err, KindDuplicate) {
		return nil
	}
	if err != nil {
		return err
	}
	logger.Info("seeded admin account", zap.String("email", email))
	return nil
}

func invalidCredentials() *AppError {
	return newAppError(KindAuth, "invalid email or password", nil)
}
