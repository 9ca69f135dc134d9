package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"rhythm-flow/internal/domain"
)

var (
	ErrAccountExists   = errors.New("account already exists")
	ErrAccountNotFound = errors.New("account not found")
)

// AccountRepository define el contrato de persistencia para cuentas.
type AccountRepository interface {
	Create(ctx context.Context, account domain.Account) error
	GetByIdentifier(ctx context.Context, identifier string) (domain.Account, error)
}

// JSONAccountRepository implementa AccountRepository sobre un Document con
// forma {"<email>": {"email": ..., "password": ...}}.
type JSONAccountRepository struct {
	// mu serializa el read-modify-write dentro del proceso.
	mu  sync.Mutex
	doc Document
}

func NewJSONAccountRepository(doc Document) *JSONAccountRepository {
	return &JSONAccountRepository{doc: doc}
}

func (r *JSONAccountRepository) Create(ctx context.Context, account domain.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	accounts, err := r.load(ctx)
	if err != nil {
		return err
	}
	if _, ok := accounts[account.Identifier]; ok {
		return ErrAccountExists
	}
	accounts[account.Identifier] = account
	return r.save(ctx, accounts)
}

func (r *JSONAccountRepository) GetByIdentifier(ctx context.Context, identifier string) (domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	accounts, err := r.load(ctx)
	if err != nil {
		return domain.Account{}, err
	}
	account, ok := accounts[identifier]
	if !ok {
		return domain.Account{}, ErrAccountNotFound
	}
	return account, nil
}

func (r *JSONAccountRepository) load(ctx context.Context) (map[string]domain.Account, error) {
	data, err := r.doc.Load(ctx)
	if err != nil {
		return nil, err
	}
	data = bytes.TrimSpace(data)
	accounts := make(map[string]domain.Account)
	if len(data) == 0 {
		return accounts, nil
	}

	// users.json antiguo: [{"email": ..., "password": ...}]
	if data[0] == '[' {
		var legacy []domain.Account
		if err := json.Unmarshal(data, &legacy); err != nil {
			return nil, fmt.Errorf("%w: decode accounts: %v", ErrStoreIO, err)
		}
		for _, a := range legacy {
			if err := validateAccount(a.Identifier, a); err != nil {
				return nil, err
			}
			if _, dup := accounts[a.Identifier]; !dup {
				accounts[a.Identifier] = a
			}
		}
		return accounts, nil
	}

	if err := json.Unmarshal(data, &accounts); err != nil {
		return nil, fmt.Errorf("%w: decode accounts: %v", ErrStoreIO, err)
	}
	for key, a := range accounts {
		if err := validateAccount(key, a); err != nil {
			return nil, err
		}
	}
	return accounts, nil
}

func (r *JSONAccountRepository) save(ctx context.Context, accounts map[string]domain.Account) error {
	data, err := json.MarshalIndent(accounts, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encode accounts: %v", ErrStoreIO, err)
	}
	return r.doc.Save(ctx, data)
}

func validateAccount(key string, a domain.Account) error {
	if strings.TrimSpace(a.Identifier) == "" || a.Identifier != key {
		return fmt.Errorf("%w: account record %q has mismatched identifier", ErrStoreIO, key)
	}
	if a.CredentialHash == "" {
		return fmt.Errorf("%w: account record %q has no credential hash", ErrStoreIO, key)
	}
	return nil
}
