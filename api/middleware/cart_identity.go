package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/parkyoungho/marushop-backend/internal/cart"
	"github.com/parkyoungho/marushop-backend/pkg/config"
	"github.com/parkyoungho/marushop-backend/pkg/logger"
)

type identityKey struct{}

const userIDHeader = "X-User-Id"

// CartIdentity constructs the cart identity once per request: the anonymous
// token from the cart cookie (minted on first sight) plus the authenticated
// user id from the gateway-injected header. Handlers never read cookies or
// headers themselves.
func CartIdentity(cfg config.CartConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity := cart.Identity{}

			if cookie, err := r.Cookie(cfg.CookieName); err == nil && cookie.Value != "" {
				identity.AnonToken = cookie.Value
			} else {
				identity.AnonToken = cart.NewAnonToken()
				http.SetCookie(w, &http.Cookie{
					Name:     cfg.CookieName,
					Value:    identity.AnonToken,
					Path:     "/",
					MaxAge:   int(cfg.CookieTTL.Seconds()),
					HttpOnly: true,
					Secure:   cfg.CookieSecure,
					SameSite: http.SameSiteLaxMode,
				})
			}

			ctx := r.Context()
			if raw := r.Header.Get(userIDHeader); raw != "" {
				if userID, err := uuid.Parse(raw); err == nil {
					identity.UserID = &userID
					if logg != nil {
						ctx = logg.WithUserID(ctx, userID.String())
					}
				}
			}

			ctx = context.WithValue(ctx, identityKey{}, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// IdentityFromContext returns the identity placed by CartIdentity. The zero
// Identity is returned outside that middleware.
func IdentityFromContext(ctx context.Context) cart.Identity {
	if identity, ok := ctx.Value(identityKey{}).(cart.Identity); ok {
		return identity
	}
	return cart.Identity{}
}
