package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"tabi/internal/models/db_models"
	"tabi/internal/models/request_models"
	"tabi/internal/models/response_models"
	"tabi/internal/repositories"
	"tabi/pkg/cache"
	"tabi/pkg/utils"
)

const revokedPrefix = "jwt:revoked:"

type AccountServiceInterface interface {
	Login(ctx context.Context, request request_models.LoginRequest) (*response_models.AccountLoginResponse, error)
	CreateAccount(ctx context.Context, request request_models.SignUpRequest) (*response_models.AccountLoginResponse, error)
	Me(ctx context.Context, accountID string) (*response_models.AccountResponse, error)
	// SignOut denies the token id until the token would have expired anyway.
	SignOut(ctx context.Context, jti string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

type AccountService struct {
	accountRepo repositories.AccountRepository
	denylist    cache.Cache
}

func NewAccountService(accountRepo repositories.AccountRepository, denylist cache.Cache) AccountServiceInterface {
	return &AccountService{
		accountRepo: accountRepo,
		denylist:    denylist,
	}
}

func (a *AccountService) Login(ctx context.Context, request request_models.LoginRequest) (*response_models.AccountLoginResponse, error) {
	startTime := time.Now()

	account, err := a.accountRepo.FindByUsername(ctx, strings.TrimSpace(request.Username))
	if err != nil {
		return nil, utils.ErrDatabaseError
	}
	if account == nil {
		return nil, utils.ErrAccountNotFound
	}

	if err := utils.ComparePasswords(account.PasswordHash, request.Password); err != nil {
		return nil, utils.ErrInvalidCredentials
	}

	log.Debug().Str("account_id", account.ID.String()).Dur("took", time.Since(startTime)).Msg("login")

	return a.issue(account)
}

func (a *AccountService) issue(account *db_models.Account) (*response_models.AccountLoginResponse, error) {
	token, claims, err := utils.CreateToken(account.ID, account.Role)
	if err != nil {
		log.Error().Err(err).Msg("token generation failed")
		return nil, utils.ErrInvalidCredentials
	}
	return &response_models.AccountLoginResponse{
		Token:     token,
		ExpiresAt: claims.ExpiresAt.Unix(),
	}, nil
}

func (a *AccountService) CreateAccount(ctx context.Context, request request_models.SignUpRequest) (*response_models.AccountLoginResponse, error) {
	username := strings.TrimSpace(request.Username)
	email := strings.ToLower(strings.TrimSpace(request.Email))

	existing, err := a.accountRepo.FindByUsername(ctx, username)
	if err != nil {
		return nil, utils.ErrDatabaseError
	}
	if existing != nil {
		return nil, utils.ErrUsernameTaken
	}

	existing, err = a.accountRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, utils.ErrDatabaseError
	}
	if existing != nil {
		return nil, utils.ErrEmailAlreadyExists
	}

	hashedPassword, err := utils.HashPassword(request.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	account := &db_models.Account{
		Username:     username,
		Email:        email,
		PasswordHash: hashedPassword,
		Role:         db_models.RoleUser,
	}
	if err := a.accountRepo.InsertTx(account, ctx); err != nil {
		return nil, utils.ErrDatabaseError
	}
	log.Info().Str("account_id", account.ID.String()).Msg("account created")

	return a.issue(account)
}

func (a *AccountService) Me(ctx context.Context, accountID string) (*response_models.AccountResponse, error) {
	account, err := a.accountRepo.FindById(ctx, accountID)
	if err != nil {
		return nil, utils.ErrDatabaseError
	}
	if account == nil {
		return nil, utils.ErrAccountNotFound
	}
	return toAccountResponse(account), nil
}

func (a *AccountService) SignOut(ctx context.Context, jti string, expiresAt time.Time) error {
	if jti == "" {
		return nil
	}
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	return a.denylist.Set(ctx, revokedPrefix+jti, true, ttl)
}

func (a *AccountService) IsRevoked(ctx context.Context, jti string) (bool, error) {
	if jti == "" {
		return false, nil
	}
	var revoked bool
	ok, err := a.denylist.Get(ctx, revokedPrefix+jti, &revoked)
	if err != nil {
		return false, err
	}
	return ok && revoked, nil
}

func toAccountResponse(a *db_models.Account) *response_models.AccountResponse {
	return &response_models.AccountResponse{
		ID:       a.ID.String(),
		Username: a.Username,
		Email:    a.Email,
		Role:     a.Role,
	}
}
