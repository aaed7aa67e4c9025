package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/crypto/bcrypt"

	"github.com/shelbyTagv/MuseyamwaLabourConnect/internal/models"
)

var (
	ErrDuplicateUser      = errors.New("email or phone already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrSuspended          = errors.New("account suspended")
	ErrInvalidRole        = errors.New("role must be employer or employee")
	ErrUserNotFound       = errors.New("user not found")
)

const minPasswordLen = 8

// Store is the user persistence surface. *Repository implements it.
type Store interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	CreateTx(ctx context.Context, tx pgx.Tx, u *models.User) error
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, userID uuid.UUID) (*models.User, error)
	SetOnline(ctx context.Context, userID uuid.UUID, online bool) error
}

// Wallet creates the signup wallet and lands the welcome bonus in the same
// transaction as the user row.
type Wallet interface {
	CreateTx(ctx context.Context, tx pgx.Tx, userID uuid.UUID) (*models.Wallet, error)
	CreditTx(ctx context.Context, tx pgx.Tx, userID uuid.UUID, amount int64, txType, description string, referenceID *uuid.UUID) (*models.Wallet, error)
}

// Profiles seeds the empty profile row at signup.
type Profiles interface {
	EnsureTx(ctx context.Context, tx pgx.Tx, userID uuid.UUID) error
}

// RegisterInput carries a signup request.
type RegisterInput struct {
	Email    string
	Phone    string
	Password string
	FullName string
	Role     string
}

type Service interface {
	Register(ctx context.Context, in RegisterInput) (*models.User, string, error)
	Login(ctx context.Context, email, password string) (*models.User, string, error)
	Logout(ctx context.Context, userID uuid.UUID) error
	Me(ctx context.Context, userID uuid.UUID) (*models.User, error)
	ValidateToken(token string) (uuid.UUID, string, error)
}

type service struct {
	repo     Store
	wallet   Wallet
	profiles Profiles
	secret   []byte
	tokenTTL time.Duration
	bonus    int64
	log      *slog.Logger
}

var _ Service = (*service)(nil)

// NewService creates the auth service. bonus is the token amount credited to
// every new wallet at signup.
func NewService(repo Store, wallet Wallet, profiles Profiles, secret []byte, tokenTTL time.Duration, bonus int64, log *slog.Logger) Service {
	if log == nil {
		log = slog.Default()
	}
	return &service{
		repo:     repo,
		wallet:   wallet,
		profiles: profiles,
		secret:   secret,
		tokenTTL: tokenTTL,
		bonus:    bonus,
		log:      log,
	}
}

type claims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

// Register creates the user, their profile, their wallet, and the welcome
// bonus in one transaction, then issues a token. No partial signups: either
// all four land or none do.
func (s *service) Register(ctx context.Context, in RegisterInput) (*models.User, string, error) {
	if in.Role != models.RoleEmployer && in.Role != models.RoleEmployee {
		return nil, "", ErrInvalidRole
	}
	if len(in.Password) < minPasswordLen {
		return nil, "", fmt.Errorf("password must be at least %d characters", minPasswordLen)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("hash password: %w", err)
	}

	u := &models.User{
		ID:           uuid.New(),
		Email:        strings.ToLower(strings.TrimSpace(in.Email)),
		Phone:        strings.TrimSpace(in.Phone),
		PasswordHash: string(hash),
		FullName:     strings.TrimSpace(in.FullName),
		Role:         in.Role,
	}

	tx, err := s.repo.Begin(ctx)
	if err != nil {
		return nil, "", fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := s.repo.CreateTx(ctx, tx, u); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, "", ErrDuplicateUser
		}
		return nil, "", fmt.Errorf("insert user: %w", err)
	}
	if err := s.profiles.EnsureTx(ctx, tx, u.ID); err != nil {
		return nil, "", fmt.Errorf("create profile: %w", err)
	}
	if _, err := s.wallet.CreateTx(ctx, tx, u.ID); err != nil {
		return nil, "", fmt.Errorf("create wallet: %w", err)
	}
	if s.bonus > 0 {
		if _, err := s.wallet.CreditTx(ctx, tx, u.ID, s.bonus, models.TxTypeRegistrationBonus, "Welcome bonus", nil); err != nil {
			return nil, "", fmt.Errorf("credit welcome bonus: %w", err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, "", fmt.Errorf("commit tx: %w", err)
	}

	token, err := s.issueToken(u.ID, u.Role)
	if err != nil {
		return nil, "", err
	}

	s.log.Info("user registered", "user_id", u.ID, "role", u.Role)
	return u, token, nil
}

func (s *service) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	u, err := s.repo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("load user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, "", ErrInvalidCredentials
	}
	if u.IsSuspended {
		return nil, "", ErrSuspended
	}

	if err := s.repo.SetOnline(ctx, u.ID, true); err != nil {
		s.log.Warn("set online failed", "user_id", u.ID, "error", err)
	} else {
		u.IsOnline = true
	}

	token, err := s.issueToken(u.ID, u.Role)
	if err != nil {
		return nil, "", err
	}

	s.log.Info("user logged in", "user_id", u.ID)
	return u, token, nil
}

func (s *service) Logout(ctx context.Context, userID uuid.UUID) error {
	return s.repo.SetOnline(ctx, userID, false)
}

func (s *service) Me(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	u, err := s.repo.GetByID(ctx, userID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	return u, err
}

func (s *service) issueToken(userID uuid.UUID, role string) (string, error) {
	now := time.Now()
	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		Role: role,
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := tok.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken verifies signature and expiry and returns the subject and
// role. Both the HTTP middleware and the websocket handshakes call it.
func (s *service) ValidateToken(token string) (uuid.UUID, string, error) {
	tok, err := jwt.ParseWithClaims(token, &claims{}, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return uuid.Nil, "", err
	}
	c, ok := tok.Claims.(*claims)
	if !ok || !tok.Valid {
		return uuid.Nil, "", errors.New("invalid token")
	}
	id, err := uuid.Parse(c.Subject)
	if err != nil {
		return uuid.Nil, "", fmt.Errorf("parse subject: %w", err)
	}
	return id, c.Role, nil
}
