// Package hasher provides one-way adaptive password hashing.
//
// Every Hash call embeds a fresh random salt in its output, so hashing the same
// password twice yields different strings. Verify never returns an error: a
// malformed or foreign hash simply does not match.
package hasher

import (
	"errors"
	"fmt"
)

var ErrPasswordTooLong = errors.New("password is too long")

type Hasher interface {
	Hash(password string) (string, error)
	Verify(password, hash string) bool
}

type Config struct {
	Algorithm     string
	BcryptCost    int
	Argon2Time    uint32
	Argon2Memory  uint32
	Argon2Threads uint8
}

func New(cfg Config) (Hasher, error) {
	switch cfg.Algorithm {
	case "", "bcrypt":
		return NewBcrypt(cfg.BcryptCost), nil
	case "argon2id":
		return NewArgon2id(cfg.Argon2Time, cfg.Argon2Memory, cfg.Argon2Threads), nil
	default:
		return nil, fmt.Errorf("unknown hasher algorithm %q", cfg.Algorithm)
	}
}
