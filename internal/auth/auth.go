// Package auth implements the admin password gate. It is a deterrent for a
// shared kiosk screen, not a security boundary: the password lives in the
// same unauthenticated store as the winner list.
package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	"raffle/internal/store"
)

// DefaultPassword applies until an operator sets a password of their own.
const DefaultPassword = "InternationalMessaging@20"

// ErrBadPassword is returned on a failed check. Recoverable; the caller
// clears the input and retries.
var ErrBadPassword = errors.New("incorrect password")

// Gate checks the shared admin password and mints bearer tokens for the
// admin configuration surface.
type Gate struct {
	mu    sync.Mutex
	store store.Store
	token string
}

func NewGate(st store.Store) *Gate {
	return &Gate{store: st}
}

// password reads the stored password, falling back to the default.
func (g *Gate) password() string {
	var stored string
	ok, err := g.store.Get(store.KeyAdminPassword, &stored)
	if err != nil || !ok || stored == "" {
		return DefaultPassword
	}
	return stored
}

// Check reports whether password matches. The value itself is never logged.
func (g *Gate) Check(password string) error {
	if password != g.password() {
		return ErrBadPassword
	}
	return nil
}

// Login validates the password and returns a bearer token for the admin
// routes. A stable token that is hard to guess is all this surface needs.
func (g *Gate) Login(password string) (string, error) {
	if err := g.Check(password); err != nil {
		return "", err
	}
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s-%d", password, time.Now().UnixNano())))

	g.mu.Lock()
	g.token = hex.EncodeToString(sum[:])
	token := g.token
	g.mu.Unlock()
	return token, nil
}

// Validate reports whether token matches the current session token.
func (g *Gate) Validate(token string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return token != "" && token == g.token
}

// SetPassword stores a new password after verifying the current one.
func (g *Gate) SetPassword(current, next string) error {
	if err := g.Check(current); err != nil {
		return err
	}
	if next == "" {
		return errors.New("password must not be empty")
	}
	return g.store.Put(store.KeyAdminPassword, next)
}
