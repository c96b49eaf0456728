package portalsync

import (
	"strings"
	"time"
)

// UserRepo provides typed access to the user collection.
type UserRepo struct {
	repoDeps
}

// All returns every cached user in insertion order.
func (r *UserRepo) All() ([]User, error) {
	records, err := r.store.ReadCollection(KindUsers)
	if err != nil {
		return nil, err
	}
	return decodeCollection[User](records)
}

// ByID returns the user with the given identity.
func (r *UserRepo) ByID(id string) (*User, error) {
	rec, err := r.store.Get(KindUsers, id)
	if err != nil {
		return nil, err
	}
	user, err := decodeRecord[User](rec)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// ByEmail returns the user with the given email, compared
// case-insensitively. Returns ErrNotFound when no user matches.
func (r *UserRepo) ByEmail(email string) (*User, error) {
	users, err := r.All()
	if err != nil {
		return nil, err
	}
	for i := range users {
		if strings.EqualFold(users[i].Email, email) {
			return &users[i], nil
		}
	}
	return nil, ErrNotFound
}

// Save validates and persists the user, minting an identity on first save.
// Emails must be unique across users.
func (r *UserRepo) Save(user User) (*User, error) {
	if err := user.Validate(); err != nil {
		return nil, err
	}

	if user.ID == "" {
		user.ID = newID()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	existing, err := r.ByEmail(user.Email)
	if err != nil && err != ErrNotFound {
		return nil, err
	}
	if existing != nil && existing.ID != user.ID {
		return nil, &ValidationError{Field: "email", Message: "already in use"}
	}

	rec, err := encodeRecord(user.ID, &user)
	if err != nil {
		return nil, err
	}
	if err := r.saveRecord(KindUsers, rec); err != nil {
		return nil, err
	}
	return &user, nil
}

// Delete removes the user from the cache and schedules the remote delete.
func (r *UserRepo) Delete(id string) error {
	return r.deleteRecord(KindUsers, id)
}
