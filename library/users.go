package library

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// UserRegistry covers account creation and authentication. Hashing happens
// here, before anything touches the store; the registry never persists or
// logs a plaintext password.
type UserRegistry struct {
	store  *Store
	hasher PasswordHasher
}

// NewUserRegistry wires the registry; a nil hasher selects PBKDF2 defaults.
func NewUserRegistry(store *Store, hasher PasswordHasher) *UserRegistry {
	if hasher == nil {
		hasher = PBKDF2Hasher{}
	}
	return &UserRegistry{store: store, hasher: hasher}
}

func (r *UserRegistry) Create(ctx context.Context, name, role, password string) (int64, error) {
	if strings.TrimSpace(name) == "" {
		return 0, fmt.Errorf("%w: name is required", ErrValidation)
	}
	if strings.TrimSpace(role) == "" {
		return 0, fmt.Errorf("%w: role is required", ErrValidation)
	}
	if password == "" {
		return 0, fmt.Errorf("%w: password is required", ErrValidation)
	}

	digest, salt, err := r.hasher.Hash(password)
	if err != nil {
		return 0, fmt.Errorf("hash credential: %w", err)
	}

	id, err := r.store.insertID(ctx, r.store.db,
		`INSERT INTO users(name,role,credential_hash,salt) VALUES(?,?,?,?)`, name, role, digest, salt)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") ||
			strings.Contains(err.Error(), "duplicate key") {
			return 0, fmt.Errorf("%w: name %q is already taken", ErrValidation, name)
		}
		return 0, r.store.fail("create user", err)
	}
	return id, nil
}

func (r *UserRegistry) Find(ctx context.Context, id int64) (*User, error) {
	var u User
	err := r.store.db.GetContext(ctx, &u,
		r.store.db.Rebind(`SELECT id,name,role,credential_hash,salt FROM users WHERE id=?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, r.store.fail("find user", err)
	}
	return &u, nil
}

// Authenticate looks the user up by name and checks the credential. Unknown
// name and wrong password both return ErrAuthFailed so callers cannot tell
// which names exist.
func (r *UserRegistry) Authenticate(ctx context.Context, name, password string) (*User, error) {
	var u User
	err := r.store.db.GetContext(ctx, &u,
		r.store.db.Rebind(`SELECT id,name,role,credential_hash,salt FROM users WHERE name=?`), name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAuthFailed
	}
	if err != nil {
		return nil, r.store.fail("authenticate user", err)
	}
	if !r.hasher.Verify(password, u.Salt, u.CredentialHash) {
		return nil, ErrAuthFailed
	}
	return &u, nil
}
