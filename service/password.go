package service

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

const (
	PasswordSchemePlain  = "plain"
	PasswordSchemeBcrypt = "bcrypt"
)

// PasswordHasher turns a password into its stored form and checks it later
type PasswordHasher interface {
	Hash(pw string) (string, error)
	Verify(stored, pw string) bool
}

// PlainHasher stores passwords as given. Lookups compare them in the store.
type PlainHasher struct{}

func (PlainHasher) Hash(pw string) (string, error) { return pw, nil }
func (PlainHasher) Verify(stored, pw string) bool  { return stored == pw }

// BcryptHasher implementation.
type BcryptHasher struct{ Cost int }

func (b BcryptHasher) Hash(pw string) (string, error) {
	cost := b.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	h, err := bcrypt.GenerateFromPassword([]byte(pw), cost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

func (b BcryptHasher) Verify(stored, pw string) bool {
	return bcrypt.CompareHashAndPassword([]byte(stored), []byte(pw)) == nil
}

// NewPasswordHasher selects the hasher for a configured scheme
func NewPasswordHasher(scheme string, bcryptCost int) (PasswordHasher, error) {
	switch scheme {
	case "", PasswordSchemePlain:
		return PlainHasher{}, nil
	case PasswordSchemeBcrypt:
		return BcryptHasher{Cost: bcryptCost}, nil
	default:
		return nil, fmt.Errorf("unknown password scheme: %s", scheme)
	}
}
