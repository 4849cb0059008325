package authn

import (
	"context"
	"errors"
	"fmt"

	"github.com/alexedwards/argon2id"

	"github.com/felixfuego/AppPark-sub000/internal/domain"
	"github.com/felixfuego/AppPark-sub000/internal/repo/postgres"
	"github.com/felixfuego/AppPark-sub000/internal/utils"
	"github.com/felixfuego/AppPark-sub000/pkg/auth"
	"github.com/felixfuego/AppPark-sub000/pkg/clock"
	"github.com/felixfuego/AppPark-sub000/pkg/config"
	"github.com/felixfuego/AppPark-sub000/pkg/logger"
)

// ErrInvalidCredentials covers unknown email and wrong password alike, so
// login responses do not reveal which one it was.
var ErrInvalidCredentials = errors.New("invalid credentials")

type Service interface {
	Register(ctx context.Context, req *domain.RegisterReq) (*domain.Account, error)
	Login(ctx context.Context, req *domain.LoginReq) (*domain.LoginRes, error)
}

type service struct {
	accounts postgres.AccountRepo
	guard    *Guard
	cfg      *config.Config
	clk      clock.Clock
}

func NewService(accounts postgres.AccountRepo, guard *Guard, cfg *config.Config, clk clock.Clock) Service {
	return &service{accounts: accounts, guard: guard, cfg: cfg, clk: clk}
}

func (s *service) Register(ctx context.Context, req *domain.RegisterReq) (*domain.Account, error) {
	req.Email = utils.NormalizeEmail(req.Email)
	if !utils.IsValidEmail(req.Email) {
		return nil, fmt.Errorf("invalid email %q", req.Email)
	}
	if _, ok := domain.ParseRole(req.Role); !ok {
		return nil, fmt.Errorf("invalid role %q", req.Role)
	}
	if len(req.Password) < 8 {
		return nil, errors.New("password must be at least 8 characters")
	}

	existing, err := s.accounts.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing account: %w", err)
	}
	if existing != nil {
		return nil, errors.New("account with this email already exists")
	}

	hash, err := argon2id.CreateHash(req.Password, argon2id.DefaultParams)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	acc, err := s.accounts.Create(ctx, req, hash)
	if err != nil {
		return nil, fmt.Errorf("failed to create account: %w", err)
	}
	return acc, nil
}

func (s *service) Login(ctx context.Context, req *domain.LoginReq) (*domain.LoginRes, error) {
	email := utils.NormalizeEmail(req.Email)
	now := s.clk.Now()

	acc, err := s.accounts.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to find account: %w", err)
	}
	if acc == nil {
		return nil, ErrInvalidCredentials
	}

	if s.guard.IsLocked(acc, now) {
		return nil, domain.ErrLockedOut
	}

	valid, err := argon2id.ComparePasswordAndHash(req.Password, acc.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("failed to verify password: %w", err)
	}
	if !valid {
		locked := s.guard.RecordFailure(acc, now)
		if err := s.accounts.SaveLockState(ctx, acc); err != nil {
			logger.ErrorContext(ctx, "Failed to persist lock state", "error", err, "account_id", acc.ID)
		}
		if locked {
			return nil, domain.ErrLockedOut
		}
		return nil, ErrInvalidCredentials
	}

	s.guard.RecordSuccess(acc)
	if err := s.accounts.SaveLockState(ctx, acc); err != nil {
		logger.ErrorContext(ctx, "Failed to persist lock state", "error", err, "account_id", acc.ID)
	}

	token, err := auth.NewAccessToken(acc, s.cfg.Auth.JWTSecret, s.cfg.Auth.AccessTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to create access token: %w", err)
	}

	return &domain.LoginRes{
		AccessToken: token,
		ExpiresIn:   int64(s.cfg.Auth.AccessTokenTTL.Seconds()),
		Role:        string(acc.Role),
	}, nil
}
