package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"rhythm-flow/internal/domain"
	"rhythm-flow/internal/repository"
)

// AccountService coordina registro y verificación de credenciales.
type AccountService struct {
	logger   *zap.Logger
	accounts repository.AccountRepository
	cost     int
}

// BcryptCost mantiene el login interactivo por debajo de ~100ms.
const BcryptCost = 10

var (
	ErrInvalidInput       = errors.New("email and password required")
	ErrAccountExists      = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")

	// Ambos envuelven ErrInvalidCredentials para que la capa HTTP responda igual.
	ErrAccountNotFound    = fmt.Errorf("%w: account not found", ErrInvalidCredentials)
	ErrCredentialMismatch = fmt.Errorf("%w: password mismatch", ErrInvalidCredentials)
)

// dummyHash se compara cuando la cuenta no existe, así ambos fallos tardan lo mismo.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("rhythm-flow-dummy-password"), BcryptCost)

func NewAccountService(logger *zap.Logger, accounts repository.AccountRepository) *AccountService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AccountService{
		logger:   logger,
		accounts: accounts,
		cost:     BcryptCost,
	}
}

func (s *AccountService) Register(ctx context.Context, identifier, secret string) error {
	if s.accounts == nil {
		return errors.New("account service not configured")
	}
	if strings.TrimSpace(identifier) == "" || secret == "" {
		return ErrInvalidInput
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(secret), s.cost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	account := domain.Account{
		Identifier:     identifier,
		CredentialHash: string(hash),
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.accounts.Create(ctx, account); err != nil {
		if errors.Is(err, repository.ErrAccountExists) {
			return ErrAccountExists
		}
		return err
	}
	s.logger.Info("account registered", zap.String("email", identifier))
	return nil
}

func (s *AccountService) Authenticate(ctx context.Context, identifier, secret string) (domain.Account, error) {
	if s.accounts == nil {
		return domain.Account{}, errors.New("account service not configured")
	}
	if strings.TrimSpace(identifier) == "" || secret == "" {
		return domain.Account{}, ErrInvalidInput
	}

	account, err := s.accounts.GetByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(secret))
			return domain.Account{}, ErrAccountNotFound
		}
		return domain.Account{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(account.CredentialHash), []byte(secret)); err != nil {
		return domain.Account{}, ErrCredentialMismatch
	}
	return account, nil
}
