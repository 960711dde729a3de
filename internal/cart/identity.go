package cart

import (
	"errors"

	"github.com/google/uuid"
)

// Identity is the explicit cart addressing value constructed once at the
// request boundary. The anonymous token is an opaque client-held string; the
// core attaches no semantics beyond "same token, same logical anonymous cart".
type Identity struct {
	AnonToken string
	UserID    *uuid.UUID
}

// Valid reports whether the identity can address a cart at all.
func (i Identity) Valid() bool {
	return i.AnonToken != "" || i.UserID != nil
}

// ErrNoIdentity is returned when neither an anonymous token nor a user id is
// present.
var ErrNoIdentity = errors.New("cart: no identity provided")

// NewAnonToken mints a fresh opaque token for a first-time anonymous visitor.
func NewAnonToken() string {
	return uuid.NewString()
}
