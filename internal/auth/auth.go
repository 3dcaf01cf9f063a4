// Package auth manages user credentials.
//
// Users live in an append-only file of "email hash" lines. Both the exists
// check and credential verification scan that file in order.
package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/famish99/songd/internal/storage"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidEmail = errors.New("invalid email")
	ErrUserExists   = errors.New("user already exists")
	ErrUserNotFound = errors.New("user not found")
)

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+$`)

// ValidEmail reports whether email has the local@domain shape.
func ValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// Hasher is the one-way password hash.
type Hasher interface {
	Hash(password string) (string, error)
	Verify(hash, password string) bool
}

// BcryptHasher hashes passwords with bcrypt. Passwords are reduced to a
// hex SHA-256 digest first so inputs past bcrypt's 72-byte limit still hash
// and differ.
type BcryptHasher struct {
	Cost int
}

// Hash returns the bcrypt hash of password.
func (h BcryptHasher) Hash(password string) (string, error) {
	cost := h.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword(prehash(password), cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// Verify reports whether password matches hash.
func (h BcryptHasher) Verify(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), prehash(password)) == nil
}

func prehash(password string) []byte {
	sum := sha256.Sum256([]byte(password))
	dst := make([]byte, hex.EncodedLen(len(sum)))
	hex.Encode(dst, sum[:])
	return dst
}

// Users is the credential store.
type Users struct {
	file   *storage.LineFile
	hasher Hasher
}

// NewUsers returns a [Users] backed by file.
func NewUsers(file *storage.LineFile, hasher Hasher) *Users {
	return &Users{file: file, hasher: hasher}
}

// Record formats the credential line stored for a user.
func Record(email, hash string) string {
	return email + " " + hash
}

// Register creates a user when email is well-formed and unused.
func (u *Users) Register(email, password string) error {
	if !ValidEmail(email) {
		return fmt.Errorf("%w: %s", ErrInvalidEmail, email)
	}

	exists, err := u.Exists(email)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("%w: %s", ErrUserExists, email)
	}

	hash, err := u.hasher.Hash(password)
	if err != nil {
		return err
	}
	if err := u.file.Append(Record(email, hash)); err != nil {
		return fmt.Errorf("failed to store user: %w", err)
	}
	return nil
}

// Exists reports whether a user with email is registered.
func (u *Users) Exists(email string) (bool, error) {
	found := false
	err := u.file.Scan(func(line string) bool {
		e, _ := splitRecord(line)
		if e == email {
			found = true
			return false
		}
		return true
	})
	if err != nil {
		return false, fmt.Errorf("failed to read users: %w", err)
	}
	return found, nil
}

// Verify checks email and password together. Any mismatch reports
// [ErrUserNotFound] so callers cannot tell which one was wrong.
func (u *Users) Verify(email, password string) error {
	ok := false
	err := u.file.Scan(func(line string) bool {
		e, hash := splitRecord(line)
		if e == email && u.hasher.Verify(hash, password) {
			ok = true
			return false
		}
		return true
	})
	if err != nil {
		return fmt.Errorf("failed to read users: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrUserNotFound, email)
	}
	return nil
}

func splitRecord(line string) (email, hash string) {
	email, hash, _ = strings.Cut(line, " ")
	return email, strings.TrimSpace(hash)
}
