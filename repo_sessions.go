package portalsync

import (
	"sort"
	"time"
)

// SessionRepo provides typed access to the audit-session collection.
// Audit tasks live inside their session and are saved as part of it.
type SessionRepo struct {
	repoDeps
}

// All returns audit sessions, optionally filtered to one client, most
// recent first.
func (r *SessionRepo) All(clientID string) ([]AuditSession, error) {
	records, err := r.store.ReadCollection(KindSessions)
	if err != nil {
		return nil, err
	}
	sessions, err := decodeCollection[AuditSession](records)
	if err != nil {
		return nil, err
	}

	if clientID != "" {
		filtered := sessions[:0]
		for _, s := range sessions {
			if s.ClientID == clientID {
				filtered = append(filtered, s)
			}
		}
		sessions = filtered
	}

	sort.SliceStable(sessions, func(i, j int) bool {
		return sessions[i].CreatedAt.After(sessions[j].CreatedAt)
	})
	return sessions, nil
}

// ByID returns the session with the given identity.
func (r *SessionRepo) ByID(id string) (*AuditSession, error) {
	rec, err := r.store.Get(KindSessions, id)
	if err != nil {
		return nil, err
	}
	session, err := decodeRecord[AuditSession](rec)
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// Save validates and persists the session, minting identities for the
// session and any new embedded tasks.
func (r *SessionRepo) Save(session AuditSession) (*AuditSession, error) {
	if err := session.Validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if session.ID == "" {
		session.ID = newID()
	}
	if session.CreatedAt.IsZero() {
		session.CreatedAt = now
	}
	for i := range session.Tasks {
		if session.Tasks[i].ID == "" {
			session.Tasks[i].ID = newID()
		}
		if session.Tasks[i].CreatedAt.IsZero() {
			session.Tasks[i].CreatedAt = now
		}
	}

	rec, err := encodeRecord(session.ID, &session)
	if err != nil {
		return nil, err
	}
	if err := r.saveRecord(KindSessions, rec); err != nil {
		return nil, err
	}
	return &session, nil
}

// ToggleTask flips the completion flag of one task inside a session and
// saves the whole session back. All other session fields are untouched.
func (r *SessionRepo) ToggleTask(sessionID, taskID string) (*AuditSession, error) {
	session, err := r.ByID(sessionID)
	if err != nil {
		return nil, err
	}

	found := false
	for i := range session.Tasks {
		if session.Tasks[i].ID == taskID {
			session.Tasks[i].IsCompleted = !session.Tasks[i].IsCompleted
			found = true
			break
		}
	}
	if !found {
		return nil, ErrNotFound
	}

	rec, err := encodeRecord(session.ID, session)
	if err != nil {
		return nil, err
	}
	if err := r.saveRecord(KindSessions, rec); err != nil {
		return nil, err
	}
	return session, nil
}

// Delete removes the session (and its embedded tasks) from the cache and
// schedules the remote delete.
func (r *SessionRepo) Delete(id string) error {
	return r.deleteRecord(KindSessions, id)
}

// IncompleteTasks returns the session's tasks that are not yet completed,
// in task order.
func (s *AuditSession) IncompleteTasks() []AuditTask {
	tasks := []AuditTask{}
	for _, t := range s.Tasks {
		if !t.IsCompleted {
			tasks = append(tasks, t)
		}
	}
	return tasks
}
