package service

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"rhythm-flow/internal/domain"
	"rhythm-flow/internal/repository"
)

type mockAccountRepo struct {
	accounts  map[string]domain.Account
	createErr error
	getErr    error
}

func newMockAccountRepo() *mockAccountRepo {
	return &mockAccountRepo{accounts: make(map[string]domain.Account)}
}

func (m *mockAccountRepo) Create(_ context.Context, account domain.Account) error {
	if m.createErr != nil {
		return m.createErr
	}
	if _, ok := m.accounts[account.Identifier]; ok {
		return repository.ErrAccountExists
	}
	m.accounts[account.Identifier] = account
	return nil
}

func (m *mockAccountRepo) GetByIdentifier(_ context.Context, identifier string) (domain.Account, error) {
	if m.getErr != nil {
		return domain.Account{}, m.getErr
	}
	account, ok := m.accounts[identifier]
	if !ok {
		return domain.Account{}, repository.ErrAccountNotFound
	}
	return account, nil
}

func TestAccountService_RegisterTwiceConflicts(t *testing.T) {
	svc := NewAccountService(zap.NewNop(), newMockAccountRepo())
	ctx := context.Background()

	if err := svc.Register(ctx, "a@x.com", "pw123"); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if err := svc.Register(ctx, "a@x.com", "other"); !errors.Is(err, ErrAccountExists) {
		t.Fatalf("expected ErrAccountExists, got %v", err)
	}
}

func TestAccountService_RegisterStoresBcryptHash(t *testing.T) {
	repo := newMockAccountRepo()
	svc := NewAccountService(zap.NewNop(), repo)

	if err := svc.Register(context.Background(), "a@x.com", "pw123"); err != nil {
		t.Fatalf("register: %v", err)
	}
	stored := repo.accounts["a@x.com"]
	if stored.CredentialHash == "" || stored.CredentialHash == "pw123" {
		t.Fatalf("expected hashed password, got %q", stored.CredentialHash)
	}
	cost, err := bcrypt.Cost([]byte(stored.CredentialHash))
	if err != nil || cost != BcryptCost {
		t.Fatalf("expected bcrypt cost %d, got %d (%v)", BcryptCost, cost, err)
	}
}

func TestAccountService_RegisterRequiresFields(t *testing.T) {
	svc := NewAccountService(zap.NewNop(), newMockAccountRepo())

	cases := []struct{ id, secret string }{
		{"", "pw"},
		{"   ", "pw"},
		{"a@x.com", ""},
	}
	for _, tc := range cases {
		if err := svc.Register(context.Background(), tc.id, tc.secret); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("expected ErrInvalidInput for %+v, got %v", tc, err)
		}
	}
}

func TestAccountService_AuthenticateOutcomes(t *testing.T) {
	svc := NewAccountService(zap.NewNop(), newMockAccountRepo())
	ctx := context.Background()
	if err := svc.Register(ctx, "a@x.com", "pw123"); err != nil {
		t.Fatalf("register: %v", err)
	}

	account, err := svc.Authenticate(ctx, "a@x.com", "pw123")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if account.Identifier != "a@x.com" {
		t.Fatalf("unexpected account %+v", account)
	}

	_, wrongErr := svc.Authenticate(ctx, "a@x.com", "wrong")
	if !errors.Is(wrongErr, ErrCredentialMismatch) || !errors.Is(wrongErr, ErrInvalidCredentials) {
		t.Fatalf("expected mismatch wrapping ErrInvalidCredentials, got %v", wrongErr)
	}

	_, unknownErr := svc.Authenticate(ctx, "nobody@x.com", "pw123")
	if !errors.Is(unknownErr, ErrAccountNotFound) || !errors.Is(unknownErr, ErrInvalidCredentials) {
		t.Fatalf("expected not found wrapping ErrInvalidCredentials, got %v", unknownErr)
	}

	_, caseErr := svc.Authenticate(ctx, "A@x.com", "pw123")
	if !errors.Is(caseErr, ErrAccountNotFound) {
		t.Fatalf("expected identifiers to be case-sensitive, got %v", caseErr)
	}
}

func TestAccountService_PropagatesStoreErrors(t *testing.T) {
	repo := newMockAccountRepo()
	repo.createErr = repository.ErrStoreIO
	repo.getErr = repository.ErrStoreIO
	svc := NewAccountService(zap.NewNop(), repo)

	if err := svc.Register(context.Background(), "a@x.com", "pw"); !errors.Is(err, repository.ErrStoreIO) {
		t.Fatalf("expected ErrStoreIO on register, got %v", err)
	}
	_, err := svc.Authenticate(context.Background(), "a@x.com", "pw")
	if !errors.Is(err, repository.ErrStoreIO) || errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrStoreIO on authenticate, got %v", err)
	}
}
