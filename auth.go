package portalsync

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Session is an authenticated portal session. The active session is persisted
// in the local cache so a restart lands the user back where they were.
type Session struct {
	Token     string    `json:"token"`
	UserID    string    `json:"userId"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	ClientID  string    `json:"clientId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// AuthGate authenticates portal users against the local cache and manages
// the persisted session.
type AuthGate struct {
	users   *UserRepo
	clients *ClientRepo
	store   *Store
	log     *slog.Logger
}

// HashPassword hashes a plaintext password for storage on a user record.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Login authenticates against the cached user collection. Email comparison
// is case-insensitive. Wrong email and wrong password both fail with
// ErrAuthFailed; a client-role user whose client is deactivated fails with
// ErrClientSuspended. On success the session is persisted locally.
func (a *AuthGate) Login(email, password string) (*Session, *User, error) {
	user, err := a.users.ByEmail(email)
	if err == ErrNotFound {
		return nil, nil, ErrAuthFailed
	}
	if err != nil {
		return nil, nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, nil, ErrAuthFailed
	}

	if user.Role == RoleClient {
		client, _, err := a.clients.ByID(user.ClientID)
		if err == ErrNotFound {
			return nil, nil, ErrAuthFailed
		}
		if err != nil {
			return nil, nil, err
		}
		if !client.IsActive {
			return nil, nil, ErrClientSuspended
		}
	}

	session := &Session{
		Token:     uuid.NewString(),
		UserID:    user.ID,
		Email:     user.Email,
		Role:      user.Role,
		ClientID:  user.ClientID,
		CreatedAt: time.Now().UTC(),
	}
	if err := a.persist(session); err != nil {
		return nil, nil, err
	}

	a.log.Info("user logged in", "user", user.ID, "role", user.Role)
	return session, user, nil
}

// RestoreSession revives the persisted session, if any, against the current
// user collection. A session whose user no longer exists, or whose client
// was deactivated, is cleared and fails with ErrNoSession.
func (a *AuthGate) RestoreSession() (*Session, *User, error) {
	raw, err := a.store.GetMetadata(metadataKeySession)
	if err != nil {
		return nil, nil, err
	}
	if raw == "" {
		return nil, nil, ErrNoSession
	}

	var session Session
	if err := json.Unmarshal([]byte(raw), &session); err != nil {
		a.clear()
		return nil, nil, ErrNoSession
	}

	user, err := a.users.ByID(session.UserID)
	if err == ErrNotFound {
		a.clear()
		return nil, nil, ErrNoSession
	}
	if err != nil {
		return nil, nil, err
	}

	if user.Role == RoleClient {
		client, _, err := a.clients.ByID(user.ClientID)
		if err == ErrNotFound || (err == nil && !client.IsActive) {
			a.clear()
			return nil, nil, ErrNoSession
		}
		if err != nil {
			return nil, nil, err
		}
	}

	return &session, user, nil
}

// ActiveSession returns the persisted session without revalidating the user.
func (a *AuthGate) ActiveSession() (*Session, error) {
	raw, err := a.store.GetMetadata(metadataKeySession)
	if err != nil {
		return nil, err
	}
	if raw == "" {
		return nil, ErrNoSession
	}
	var session Session
	if err := json.Unmarshal([]byte(raw), &session); err != nil {
		return nil, ErrNoSession
	}
	return &session, nil
}

// Logout clears the persisted session. Logging out with no session is not
// an error.
func (a *AuthGate) Logout() error {
	return a.store.DeleteMetadata(metadataKeySession)
}

func (a *AuthGate) persist(session *Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}
	return a.store.SetMetadata(metadataKeySession, string(data))
}

func (a *AuthGate) clear() {
	if err := a.store.DeleteMetadata(metadataKeySession); err != nil {
		a.log.Warn("clearing stale session failed", "error", err)
	}
}
