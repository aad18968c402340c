package auth

import (
	"errors"
	"testing"

	"raffle/internal/store"
)

func TestGate(t *testing.T) {
	t.Run("Default password applies when none stored", func(t *testing.T) {
		g := NewGate(store.NewMemStore())
		if err := g.Check(DefaultPassword); err != nil {
			t.Errorf("Expected default password to pass, got %v", err)
		}
		if err := g.Check("wrong"); !errors.Is(err, ErrBadPassword) {
			t.Errorf("Expected ErrBadPassword, got %v", err)
		}
	})

	t.Run("Login mints a validating token", func(t *testing.T) {
		g := NewGate(store.NewMemStore())
		if _, err := g.Login("nope"); !errors.Is(err, ErrBadPassword) {
			t.Fatalf("Expected ErrBadPassword, got %v", err)
		}
		token, err := g.Login(DefaultPassword)
		if err != nil {
			t.Fatalf("Expected no error, but got %v", err)
		}
		if !g.Validate(token) {
			t.Error("Expected the minted token to validate")
		}
		if g.Validate("") || g.Validate("bogus") {
			t.Error("Expected other tokens to be rejected")
		}
	})

	t.Run("SetPassword persists and requires the current one", func(t *testing.T) {
		st := store.NewMemStore()
		g := NewGate(st)
		if err := g.SetPassword("wrong", "newpass"); !errors.Is(err, ErrBadPassword) {
			t.Fatalf("Expected ErrBadPassword, got %v", err)
		}
		if err := g.SetPassword(DefaultPassword, "newpass"); err != nil {
			t.Fatalf("Expected no error, but got %v", err)
		}
		if err := g.Check("newpass"); err != nil {
			t.Errorf("Expected new password to pass, got %v", err)
		}
		if err := g.Check(DefaultPassword); !errors.Is(err, ErrBadPassword) {
			t.Errorf("Expected old password to fail, got %v", err)
		}

		// A fresh gate over the same store sees the stored password.
		if err := NewGate(st).Check("newpass"); err != nil {
			t.Errorf("Expected stored password to survive, got %v", err)
		}
	})
}
