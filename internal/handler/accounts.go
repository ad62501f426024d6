package handler

import (
    "context"
    "errors"
    "net/http"
    "net/mail"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/online-cinema/internal/logger"
    "github.com/iliyamo/online-cinema/internal/middleware"
    "github.com/iliyamo/online-cinema/internal/service"
    "github.com/iliyamo/online-cinema/internal/utils"
)

const requestTimeout = 5 * time.Second

// AccountService is the account lifecycle the handlers depend on.
type AccountService interface {
    Register(ctx context.Context, email, password string) (service.RegisteredUser, error)
    Activate(ctx context.Context, email, token string) error
    Login(ctx context.Context, email, password string) (service.TokenPair, error)
    Refresh(ctx context.Context, refreshToken string) (utils.SignedToken, error)
    RequestPasswordReset(ctx context.Context, email string) error
    CompletePasswordReset(ctx context.Context, email, token, password string) error
}

// AccountHandler bundles dependencies for the /accounts endpoints.
type AccountHandler struct {
    Accounts AccountService
}

func NewAccountHandler(accounts AccountService) *AccountHandler {
    return &AccountHandler{Accounts: accounts}
}

// ----- DTOs -----

type credentialsReq struct {
    Email    string `json:"email"`
    Password string `json:"password"`
}
type activationReq struct {
    Email string `json:"email"`
    Token string `json:"token"`
}
type refreshReq struct {
    RefreshToken string `json:"refresh_token"`
}
type resetRequestReq struct {
    Email string `json:"email"`
}
type resetCompleteReq struct {
    Email    string `json:"email"`
    Token    string `json:"token"`
    Password string `json:"password"`
}

type loginResp struct {
    AccessToken  string `json:"access_token"`
    RefreshToken string `json:"refresh_token"`
    TokenType    string `json:"token_type"`
}

func errorJSON(c echo.Context, status int, msg string) error {
    return c.JSON(status, echo.Map{"error": msg})
}

func messageJSON(c echo.Context, msg string) error {
    return c.JSON(http.StatusOK, echo.Map{"message": msg})
}

// validEmail accepts a bare address only ("a@b.c", not "A <a@b.c>").
func validEmail(s string) bool {
    addr, err := mail.ParseAddress(s)
    return err == nil && addr.Address == s && strings.Contains(s, "@")
}

// Register creates an inactive account and sends the activation email.
func (h *AccountHandler) Register(c echo.Context) error {
    var req credentialsReq
    if err := c.Bind(&req); err != nil {
        return errorJSON(c, http.StatusBadRequest, "Invalid request body.")
    }
    req.Email = strings.TrimSpace(req.Email)
    if !validEmail(req.Email) {
        return errorJSON(c, http.StatusBadRequest, "A valid email address is required.")
    }
    if req.Password == "" {
        return errorJSON(c, http.StatusBadRequest, "Password is required.")
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
    defer cancel()

    user, err := h.Accounts.Register(ctx, req.Email, req.Password)
    switch {
    case err == nil:
        return c.JSON(http.StatusCreated, user)
    case errors.Is(err, service.ErrEmailTaken):
        return errorJSON(c, http.StatusConflict, "A user with this email "+req.Email+" already exists.")
    case errors.Is(err, service.ErrInvalidArgument):
        return errorJSON(c, http.StatusBadRequest, "Password must be at most 72 bytes long.")
    case errors.Is(err, service.ErrDefaultGroupMissing):
        logger.Error("register: default user group is missing; run migrate")
        return errorJSON(c, http.StatusInternalServerError, "Default user group not found.")
    default:
        logger.Errorf("register %s: %v", req.Email, err)
        return errorJSON(c, http.StatusInternalServerError, "An error occurred during user creation.")
    }
}

// Activate redeems an activation token.
func (h *AccountHandler) Activate(c echo.Context) error {
    var req activationReq
    if err := c.Bind(&req); err != nil {
        return errorJSON(c, http.StatusBadRequest, "Invalid request body.")
    }
    req.Email = strings.TrimSpace(req.Email)
    if req.Email == "" || req.Token == "" {
        return errorJSON(c, http.StatusBadRequest, "Email and token are required.")
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
    defer cancel()

    err := h.Accounts.Activate(ctx, req.Email, req.Token)
    switch {
    case err == nil:
        return messageJSON(c, "User account activated successfully.")
    case errors.Is(err, service.ErrInvalidToken):
        return errorJSON(c, http.StatusBadRequest, "Invalid or expired activation token.")
    case errors.Is(err, service.ErrAlreadyActive):
        return errorJSON(c, http.StatusBadRequest, "User account is already active.")
    default:
        logger.Errorf("activate %s: %v", req.Email, err)
        return errorJSON(c, http.StatusInternalServerError, "An error occurred during account activation.")
    }
}

// Login verifies credentials and returns an access/refresh pair.
func (h *AccountHandler) Login(c echo.Context) error {
    var req credentialsReq
    if err := c.Bind(&req); err != nil {
        return errorJSON(c, http.StatusBadRequest, "Invalid request body.")
    }
    req.Email = strings.TrimSpace(req.Email)
    if req.Email == "" || req.Password == "" {
        return errorJSON(c, http.StatusBadRequest, "Email and password are required.")
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
    defer cancel()

    pair, err := h.Accounts.Login(ctx, req.Email, req.Password)
    switch {
    case err == nil:
        return c.JSON(http.StatusCreated, loginResp{
            AccessToken:  pair.Access.Token,
            RefreshToken: pair.Refresh.Token,
            TokenType:    "bearer",
        })
    case errors.Is(err, service.ErrInvalidCredentials):
        return errorJSON(c, http.StatusUnauthorized, "Invalid email or password.")
    case errors.Is(err, service.ErrInactiveUser):
        return errorJSON(c, http.StatusForbidden, "User account is not activated.")
    default:
        logger.Errorf("login %s: %v", req.Email, err)
        return errorJSON(c, http.StatusInternalServerError, "An error occurred while processing the request.")
    }
}

// Refresh issues a new access token for a stored refresh token.
func (h *AccountHandler) Refresh(c echo.Context) error {
    var req refreshReq
    if err := c.Bind(&req); err != nil || req.RefreshToken == "" {
        return errorJSON(c, http.StatusBadRequest, "refresh_token is required.")
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
    defer cancel()

    access, err := h.Accounts.Refresh(ctx, req.RefreshToken)
    switch {
    case err == nil:
        return c.JSON(http.StatusOK, echo.Map{"access_token": access.Token})
    case errors.Is(err, service.ErrRefreshExpired):
        return errorJSON(c, http.StatusBadRequest, "Token has expired.")
    case errors.Is(err, service.ErrRefreshInvalid):
        return errorJSON(c, http.StatusBadRequest, "Invalid token.")
    case errors.Is(err, service.ErrRefreshNotFound):
        return errorJSON(c, http.StatusUnauthorized, "Refresh token not found.")
    case errors.Is(err, service.ErrUserNotFound):
        return errorJSON(c, http.StatusNotFound, "User not found.")
    default:
        logger.Errorf("refresh: %v", err)
        return errorJSON(c, http.StatusInternalServerError, "An error occurred while processing the request.")
    }
}

// RequestPasswordReset always answers with the same message.
func (h *AccountHandler) RequestPasswordReset(c echo.Context) error {
    var req resetRequestReq
    if err := c.Bind(&req); err != nil {
        return errorJSON(c, http.StatusBadRequest, "Invalid request body.")
    }
    req.Email = strings.TrimSpace(req.Email)
    if !validEmail(req.Email) {
        return errorJSON(c, http.StatusBadRequest, "A valid email address is required.")
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
    defer cancel()

    if err := h.Accounts.RequestPasswordReset(ctx, req.Email); err != nil {
        logger.Errorf("password reset request %s: %v", req.Email, err)
        return errorJSON(c, http.StatusInternalServerError, "An error occurred while processing the request.")
    }
    return messageJSON(c, "If you are registered, you will receive an email with instructions.")
}

// CompletePasswordReset sets a new password using a reset token.
func (h *AccountHandler) CompletePasswordReset(c echo.Context) error {
    var req resetCompleteReq
    if err := c.Bind(&req); err != nil {
        return errorJSON(c, http.StatusBadRequest, "Invalid request body.")
    }
    req.Email = strings.TrimSpace(req.Email)
    if req.Email == "" || req.Token == "" || req.Password == "" {
        return errorJSON(c, http.StatusBadRequest, "Email, token and password are required.")
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
    defer cancel()

    err := h.Accounts.CompletePasswordReset(ctx, req.Email, req.Token, req.Password)
    switch {
    case err == nil:
        return messageJSON(c, "Password reset successfully.")
    case errors.Is(err, service.ErrInvalidResetToken):
        return errorJSON(c, http.StatusBadRequest, "Invalid email or token.")
    case errors.Is(err, service.ErrInvalidArgument):
        return errorJSON(c, http.StatusBadRequest, "Password must be at most 72 bytes long.")
    default:
        logger.Errorf("password reset complete %s: %v", req.Email, err)
        return errorJSON(c, http.StatusInternalServerError, "An error occurred while resetting the password.")
    }
}

// Me returns the identity carried by the access token.
func (h *AccountHandler) Me(c echo.Context) error {
    id, ok := middleware.UserID(c)
    if !ok {
        return errorJSON(c, http.StatusUnauthorized, "Authentication required.")
    }
    group, _ := middleware.Group(c)
    return c.JSON(http.StatusOK, echo.Map{"user_id": id, "group": group})
}
