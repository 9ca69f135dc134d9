package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"rhythm-flow/internal/domain"
	"rhythm-flow/internal/service"
)

// AccountService es lo que AccountHandler necesita del servicio de cuentas.
type AccountService interface {
	Register(ctx context.Context, identifier, secret string) error
	Authenticate(ctx context.Context, identifier, secret string) (domain.Account, error)
}

// TokenIssuer emite tokens para una cuenta autenticada.
type TokenIssuer interface {
	Issue(subject string) (service.IssuedToken, error)
}

// AccountHandler mantiene dependencias para registro y login.
type AccountHandler struct {
	logger   *zap.Logger
	accounts AccountService
	tokens   TokenIssuer
	errs     errorResponder
}

func NewAccountHandler(logger *zap.Logger, accounts AccountService, tokens TokenIssuer, dev bool) *AccountHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AccountHandler{
		logger:   logger,
		accounts: accounts,
		tokens:   tokens,
		errs:     newErrorResponder(logger, dev),
	}
}

type credentialsRequest struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	Identifier string `json:"identifier"`
	Secret     string `json:"secret"`
}

func (r credentialsRequest) credentials() (string, string) {
	id, secret := r.Email, r.Password
	if id == "" {
		id = r.Identifier
	}
	if secret == "" {
		secret = r.Secret
	}
	return id, secret
}

func (h *AccountHandler) bindCredentials(c *gin.Context) (string, string, bool) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid credentials request", zap.Error(err))
		h.errs.fail(c, http.StatusBadRequest, "Email and password required")
		return "", "", false
	}
	id, secret := req.credentials()
	if id == "" || secret == "" {
		h.errs.fail(c, http.StatusBadRequest, "Email and password required")
		return "", "", false
	}
	return id, secret, true
}

// Register maneja POST /register.
func (h *AccountHandler) Register(c *gin.Context) {
	id, secret, ok := h.bindCredentials(c)
	if !ok {
		return
	}

	err := h.accounts.Register(c.Request.Context(), id, secret)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"success": true})
	case errors.Is(err, service.ErrInvalidInput):
		h.errs.fail(c, http.StatusBadRequest, "Email and password required")
	case errors.Is(err, service.ErrAccountExists):
		h.errs.fail(c, http.StatusConflict, "User already exists")
	default:
		h.errs.internal(c, http.StatusInternalServerError, "could not register user", err)
	}
}

// Login maneja POST /login.
func (h *AccountHandler) Login(c *gin.Context) {
	id, secret, ok := h.bindCredentials(c)
	if !ok {
		return
	}

	account, err := h.accounts.Authenticate(c.Request.Context(), id, secret)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidInput):
			h.errs.fail(c, http.StatusBadRequest, "Email and password required")
		case errors.Is(err, service.ErrInvalidCredentials):
			h.errs.fail(c, http.StatusUnauthorized, "Invalid credentials")
		default:
			h.errs.internal(c, http.StatusInternalServerError, "could not login", err)
		}
		return
	}

	if h.tokens == nil {
		h.errs.internal(c, http.StatusInternalServerError, "could not issue token", errors.New("token service not configured"))
		return
	}
	issued, err := h.tokens.Issue(account.Identifier)
	if err != nil {
		h.errs.internal(c, http.StatusInternalServerError, "could not issue token", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"token":      issued.Token,
		"expires_at": issued.ExpiresAt,
	})
}
