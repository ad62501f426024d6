package service

import (
	"context"
	"crypto/subtle"
	"database/sql"
	"errors"
	"net/url"
	"time"

	"github.com/iliyamo/online-cinema/internal/database"
	"github.com/iliyamo/online-cinema/internal/model"
	"github.com/iliyamo/online-cinema/internal/repository"
	"github.com/iliyamo/online-cinema/internal/utils"
)

// AccountConfig carries the account lifecycle settings.
type AccountConfig struct {
	ActivationTTL     time.Duration
	PasswordResetTTL  time.Duration
	BcryptCost        int
	ActivationLink    string
	LoginLink         string
	PasswordResetLink string
}

// RegisteredUser is the public view of a freshly created account.
type RegisteredUser struct {
	ID    uint64 `json:"id"`
	Email string `json:"email"`
}

// TokenPair is returned on login.
type TokenPair struct {
	Access  utils.SignedToken
	Refresh utils.SignedToken
}

// AccountService implements registration, activation, login, token refresh
// and password reset. Every write path runs in one transaction; emails go
// out only after it commits.
type AccountService struct {
	db       *sql.DB
	users    *repository.UserRepo
	tokens   *repository.TokenRepo
	jwt      *utils.JWTManager
	notifier Notifier
	cfg      AccountConfig

	now      func() time.Time
	newToken func() (string, error)
}

func NewAccountService(db *sql.DB, jwt *utils.JWTManager, notifier Notifier, cfg AccountConfig) *AccountService {
	return &AccountService{
		db:       db,
		users:    repository.NewUserRepo(db),
		tokens:   repository.NewTokenRepo(db),
		jwt:      jwt,
		notifier: notifier,
		cfg:      cfg,
		now:      func() time.Time { return time.Now().UTC() },
		newToken: func() (string, error) { return utils.GenerateSecureToken(utils.DefaultTokenBytes) },
	}
}

// Register creates an inactive account in the USER group together with its
// activation token, then mails the activation link.
func (s *AccountService) Register(ctx context.Context, email, password string) (RegisteredUser, error) {
	exists, err := s.users.ExistsByEmail(ctx, email)
	if err != nil {
		return RegisteredUser{}, internal("register", err)
	}
	if exists {
		return RegisteredUser{}, ErrEmailTaken
	}
	group, err := s.users.GetGroupByName(ctx, model.GroupUser)
	if errors.Is(err, repository.ErrGroupNotFound) {
		return RegisteredUser{}, ErrDefaultGroupMissing
	}
	if err != nil {
		return RegisteredUser{}, internal("register", err)
	}
	hash, err := utils.HashPassword(password, s.cfg.BcryptCost)
	if errors.Is(err, utils.ErrPasswordTooLong) {
		return RegisteredUser{}, ErrInvalidArgument
	}
	if err != nil {
		return RegisteredUser{}, internal("register", err)
	}
	token, err := s.newToken()
	if err != nil {
		return RegisteredUser{}, internal("register", err)
	}

	var user RegisteredUser
	err = database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		id, err := s.users.WithTx(tx).Create(ctx, email, hash, group.ID)
		if err != nil {
			return err
		}
		if err := s.tokens.WithTx(tx).Create(ctx, model.ActivationToken, id, token, s.now().Add(s.cfg.ActivationTTL)); err != nil {
			return err
		}
		user = RegisteredUser{ID: id, Email: email}
		return nil
	})
	if errors.Is(err, repository.ErrEmailExists) {
		// lost the race against a concurrent registration
		return RegisteredUser{}, ErrEmailTaken
	}
	if err != nil {
		return RegisteredUser{}, internal("register", err)
	}

	link := buildLink(s.cfg.ActivationLink, url.Values{"email": {email}, "token": {token}})
	notify("activation", email, func() error { return s.notifier.SendActivationEmail(ctx, email, link) })
	return user, nil
}

// Activate redeems an activation token. An expired token is deleted even
// though the call fails; an already active account keeps its token.
func (s *AccountService) Activate(ctx context.Context, email, token string) error {
	var outcome error
	err := database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		users, tokens := s.users.WithTx(tx), s.tokens.WithTx(tx)

		tok, err := tokens.GetByEmailAndToken(ctx, model.ActivationToken, email, token)
		if errors.Is(err, repository.ErrTokenNotFound) {
			outcome = ErrInvalidToken
			return nil
		}
		if err != nil {
			return err
		}
		if tok.Expired(s.now()) {
			outcome = ErrInvalidToken
			return tokens.DeleteByID(ctx, model.ActivationToken, tok.ID)
		}
		user, err := users.GetByID(ctx, tok.UserID)
		if err != nil {
			return err
		}
		if user.IsActive {
			return ErrAlreadyActive
		}
		if err := users.Activate(ctx, user.ID); err != nil {
			return err
		}
		return tokens.DeleteByID(ctx, model.ActivationToken, tok.ID)
	})
	if errors.Is(err, ErrAlreadyActive) {
		return err
	}
	if err != nil {
		return internal("activate", err)
	}
	if outcome != nil {
		return outcome
	}

	notify("activation complete", email, func() error {
		return s.notifier.SendActivationCompleteEmail(ctx, email, s.cfg.LoginLink)
	})
	return nil
}

// Login verifies credentials and issues an access/refresh pair. The refresh
// token is stored so it can be checked and cleaned up later.
func (s *AccountService) Login(ctx context.Context, email, password string) (TokenPair, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrUserNotFound) {
		return TokenPair{}, ErrInvalidCredentials
	}
	if err != nil {
		return TokenPair{}, internal("login", err)
	}
	if !utils.VerifyPassword(user.PasswordHash, password) {
		return TokenPair{}, ErrInvalidCredentials
	}
	if !user.IsActive {
		return TokenPair{}, ErrInactiveUser
	}

	access, err := s.jwt.NewAccessToken(user.ID, string(user.Group))
	if err != nil {
		return TokenPair{}, internal("login", err)
	}
	refresh, err := s.jwt.NewRefreshToken(user.ID)
	if err != nil {
		return TokenPair{}, internal("login", err)
	}
	if err := s.tokens.Create(ctx, model.RefreshToken, user.ID, refresh.Token, refresh.Exp); err != nil {
		return TokenPair{}, internal("login", err)
	}
	return TokenPair{Access: access, Refresh: refresh}, nil
}

// Refresh exchanges a stored, valid refresh token for a new access token.
func (s *AccountService) Refresh(ctx context.Context, raw string) (utils.SignedToken, error) {
	claims, err := s.jwt.ParseRefreshToken(raw)
	if errors.Is(err, utils.ErrTokenExpired) {
		return utils.SignedToken{}, ErrRefreshExpired
	}
	if err != nil {
		return utils.SignedToken{}, ErrRefreshInvalid
	}
	if _, err := s.tokens.GetByToken(ctx, model.RefreshToken, raw); err != nil {
		if errors.Is(err, repository.ErrTokenNotFound) {
			return utils.SignedToken{}, ErrRefreshNotFound
		}
		return utils.SignedToken{}, internal("refresh", err)
	}
	uid, err := claims.UserID()
	if err != nil {
		return utils.SignedToken{}, ErrRefreshInvalid
	}
	user, err := s.users.GetByID(ctx, uid)
	if errors.Is(err, repository.ErrUserNotFound) {
		return utils.SignedToken{}, ErrUserNotFound
	}
	if err != nil {
		return utils.SignedToken{}, internal("refresh", err)
	}
	access, err := s.jwt.NewAccessToken(user.ID, string(user.Group))
	if err != nil {
		return utils.SignedToken{}, internal("refresh", err)
	}
	return access, nil
}

// RequestPasswordReset replaces any pending reset token for an active user
// and mails the reset link. Unknown or inactive emails succeed silently so
// the endpoint cannot be used to probe for accounts.
func (s *AccountService) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil
	}
	if err != nil {
		return internal("password reset", err)
	}
	if !user.IsActive {
		return nil
	}
	token, err := s.newToken()
	if err != nil {
		return internal("password reset", err)
	}

	err = database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		tokens := s.tokens.WithTx(tx)
		if err := tokens.DeleteByUser(ctx, model.PasswordResetToken, user.ID); err != nil {
			return err
		}
		return tokens.Create(ctx, model.PasswordResetToken, user.ID, token, s.now().Add(s.cfg.PasswordResetTTL))
	})
	if err != nil {
		return internal("password reset", err)
	}

	link := buildLink(s.cfg.PasswordResetLink, url.Values{"email": {email}, "token": {token}})
	notify("password reset", email, func() error { return s.notifier.SendPasswordResetEmail(ctx, email, link) })
	return nil
}

// CompletePasswordReset sets a new password when the reset token matches.
// A mismatched or expired token is consumed so it cannot be retried.
func (s *AccountService) CompletePasswordReset(ctx context.Context, email, token, password string) error {
	user, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrUserNotFound) {
		return ErrInvalidResetToken
	}
	if err != nil {
		return internal("complete password reset", err)
	}
	if !user.IsActive {
		return ErrInvalidResetToken
	}
	hash, err := utils.HashPassword(password, s.cfg.BcryptCost)
	if errors.Is(err, utils.ErrPasswordTooLong) {
		return ErrInvalidArgument
	}
	if err != nil {
		return internal("complete password reset", err)
	}

	var outcome error
	err = database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		users, tokens := s.users.WithTx(tx), s.tokens.WithTx(tx)

		tok, err := tokens.GetByUser(ctx, model.PasswordResetToken, user.ID)
		if errors.Is(err, repository.ErrTokenNotFound) {
			outcome = ErrInvalidResetToken
			return nil
		}
		if err != nil {
			return err
		}
		if subtle.ConstantTimeCompare([]byte(tok.Token), []byte(token)) != 1 || tok.Expired(s.now()) {
			outcome = ErrInvalidResetToken
			return tokens.DeleteByID(ctx, model.PasswordResetToken, tok.ID)
		}
		if err := users.UpdatePassword(ctx, user.ID, hash); err != nil {
			return err
		}
		return tokens.DeleteByID(ctx, model.PasswordResetToken, tok.ID)
	})
	if err != nil {
		return internal("complete password reset", err)
	}
	if outcome != nil {
		return outcome
	}

	notify("password reset complete", email, func() error {
		return s.notifier.SendPasswordResetCompleteEmail(ctx, email, s.cfg.LoginLink)
	})
	return nil
}
