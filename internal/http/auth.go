package httpapi

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"

	"satgas-data/internal/access"
	"satgas-data/internal/domain"
	"satgas-data/internal/repository"
	"satgas-data/internal/service"
)

// AccessTokenHeader carries the token issued at login.
const AccessTokenHeader = "X-Access-Token"

// Authenticator resolves the caller of a request from its access token.
type Authenticator struct {
	auth   repository.AuthRepository
	users  repository.UsersRepository
	admins repository.AdminsRepository
}

func NewAuthenticator(auth repository.AuthRepository, users repository.UsersRepository, admins repository.AdminsRepository) *Authenticator {
	return &Authenticator{auth: auth, users: users, admins: admins}
}

// Resolve returns service.ErrUnauthorized for a missing, unknown or expired token.
func (a *Authenticator) Resolve(ctx context.Context, r *http.Request) (domain.AccountKind, access.Account, error) {
	token := r.Header.Get(AccessTokenHeader)
	if token == "" {
		return "", access.Account{}, service.ErrUnauthorized
	}

	kind, id, err := a.auth.GetAccountByToken(ctx, token)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", access.Account{}, service.ErrUnauthorized
		}
		return "", access.Account{}, fmt.Errorf("failed to resolve access token: %w", err)
	}

	switch kind {
	case domain.AccountKindUser:
		u, err := a.users.GetByID(ctx, id)
		if err != nil {
			return "", access.Account{}, unauthorizedIfNoRows(err)
		}
		return kind, access.FromUser(u), nil
	case domain.AccountKindAdmin:
		ad, err := a.admins.GetByID(ctx, id)
		if err != nil {
			return "", access.Account{}, unauthorizedIfNoRows(err)
		}
		return kind, access.FromAdmin(ad), nil
	default:
		return "", access.Account{}, service.ErrUnauthorized
	}
}

func unauthorizedIfNoRows(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return service.ErrUnauthorized
	}
	return err
}
