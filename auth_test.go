package portalsync

import (
	"errors"
	"testing"
)

func seedUser(t *testing.T, portal *Portal, email, password string, role Role, clientID string) *User {
	t.Helper()
	hash, err := HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	user, err := portal.Users().Save(User{
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		ClientID:     clientID,
	})
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user
}

func TestLoginSuccess(t *testing.T) {
	portal := newOfflinePortal(t)
	seedUser(t, portal, "ana@ladupla.co", "s3cret", RoleAdmin, "")

	session, user, err := portal.Auth().Login("ANA@ladupla.co", "s3cret")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if session.Token == "" {
		t.Error("no session token minted")
	}
	if user.Email != "ana@ladupla.co" {
		t.Errorf("wrong user: %q", user.Email)
	}
	if session.Role != RoleAdmin {
		t.Errorf("wrong role: %q", session.Role)
	}
}

func TestLoginWrongCredentials(t *testing.T) {
	portal := newOfflinePortal(t)
	seedUser(t, portal, "ana@ladupla.co", "s3cret", RoleAdmin, "")

	if _, _, err := portal.Auth().Login("ana@ladupla.co", "wrong"); !errors.Is(err, ErrAuthFailed) {
		t.Errorf("wrong password: expected ErrAuthFailed, got %v", err)
	}
	if _, _, err := portal.Auth().Login("nobody@ladupla.co", "s3cret"); !errors.Is(err, ErrAuthFailed) {
		t.Errorf("unknown email: expected ErrAuthFailed, got %v", err)
	}
}

func TestLoginSuspendedClient(t *testing.T) {
	portal := newOfflinePortal(t)

	client := mustSaveClient(t, portal, "Aurora")
	seedUser(t, portal, "tienda@aurora.co", "s3cret", RoleClient, client.ID)

	// Active client logs in fine.
	if _, _, err := portal.Auth().Login("tienda@aurora.co", "s3cret"); err != nil {
		t.Fatalf("Login: %v", err)
	}

	inactive := false
	_, base, err := portal.Clients().ByID(client.ID)
	if err != nil {
		t.Fatalf("ByID: %v", err)
	}
	if _, err := portal.Clients().UpdateProfile(client.ID, ClientProfilePatch{IsActive: &inactive}, base); err != nil {
		t.Fatalf("suspend client: %v", err)
	}

	if _, _, err := portal.Auth().Login("tienda@aurora.co", "s3cret"); !errors.Is(err, ErrClientSuspended) {
		t.Fatalf("expected ErrClientSuspended, got %v", err)
	}
}

func TestRestoreSession(t *testing.T) {
	portal := newOfflinePortal(t)
	seedUser(t, portal, "ana@ladupla.co", "s3cret", RoleAdmin, "")

	session, _, err := portal.Auth().Login("ana@ladupla.co", "s3cret")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	restored, user, err := portal.Auth().RestoreSession()
	if err != nil {
		t.Fatalf("RestoreSession: %v", err)
	}
	if restored.Token != session.Token {
		t.Errorf("token changed across restore")
	}
	if user.Email != "ana@ladupla.co" {
		t.Errorf("wrong user restored: %q", user.Email)
	}
}

func TestRestoreSessionNoSession(t *testing.T) {
	portal := newOfflinePortal(t)

	if _, _, err := portal.Auth().RestoreSession(); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected ErrNoSession, got %v", err)
	}
}

func TestRestoreSessionStaleUserCleared(t *testing.T) {
	portal := newOfflinePortal(t)
	user := seedUser(t, portal, "ana@ladupla.co", "s3cret", RoleAdmin, "")

	if _, _, err := portal.Auth().Login("ana@ladupla.co", "s3cret"); err != nil {
		t.Fatalf("Login: %v", err)
	}

	// The account disappears (e.g. removed on another machine and synced).
	if err := portal.Users().Delete(user.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	if _, _, err := portal.Auth().RestoreSession(); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected ErrNoSession, got %v", err)
	}

	// The stale slot was cleared, not left to fail again.
	if _, err := portal.Auth().ActiveSession(); !errors.Is(err, ErrNoSession) {
		t.Fatalf("stale session not cleared: %v", err)
	}
}

func TestLogout(t *testing.T) {
	portal := newOfflinePortal(t)
	seedUser(t, portal, "ana@ladupla.co", "s3cret", RoleAdmin, "")

	if _, _, err := portal.Auth().Login("ana@ladupla.co", "s3cret"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if err := portal.Auth().Logout(); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if _, _, err := portal.Auth().RestoreSession(); !errors.Is(err, ErrNoSession) {
		t.Fatalf("session survived logout: %v", err)
	}

	// Logging out again is fine.
	if err := portal.Auth().Logout(); err != nil {
		t.Fatalf("second Logout: %v", err)
	}
}
