package portalsync

import (
	"errors"
	"path/filepath"
	"testing"
	"time"
)

// newOfflinePortal builds a portal with no remote mirror: repository writes
// land in the cache and stay pending.
func newOfflinePortal(t *testing.T) *Portal {
	t.Helper()
	portal, err := New(Config{LocalPath: filepath.Join(t.TempDir(), "portal.db")})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { portal.Close() })
	return portal
}

func mustSaveClient(t *testing.T, portal *Portal, name string) *Client {
	t.Helper()
	client, err := portal.Clients().Save(NewClient(name))
	if err != nil {
		t.Fatalf("save client: %v", err)
	}
	return client
}

func TestUserSaveMintsIdentity(t *testing.T) {
	portal := newOfflinePortal(t)

	user, err := portal.Users().Save(User{
		Email: "ana@ladupla.co",
		Name:  "Ana",
		Role:  RoleAdmin,
	})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if user.ID == "" {
		t.Error("identity not minted")
	}
	if user.CreatedAt.IsZero() {
		t.Error("creation time not set")
	}

	got, err := portal.Users().ByID(user.ID)
	if err != nil {
		t.Fatalf("ByID: %v", err)
	}
	if got.Email != "ana@ladupla.co" {
		t.Errorf("unexpected email %q", got.Email)
	}
}

func TestUserSaveRejectsDuplicateEmail(t *testing.T) {
	portal := newOfflinePortal(t)

	if _, err := portal.Users().Save(User{Email: "ana@ladupla.co", Role: RoleAdmin}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	_, err := portal.Users().Save(User{Email: "ANA@ladupla.co", Role: RoleAdmin})
	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Field != "email" {
		t.Fatalf("expected email ValidationError, got %v", err)
	}
}

func TestUserSaveClientRoleRequiresClient(t *testing.T) {
	portal := newOfflinePortal(t)

	_, err := portal.Users().Save(User{Email: "c@x.co", Role: RoleClient})
	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Field != "clientId" {
		t.Fatalf("expected clientId ValidationError, got %v", err)
	}
}

func TestUserByEmailCaseInsensitive(t *testing.T) {
	portal := newOfflinePortal(t)

	saved, err := portal.Users().Save(User{Email: "Ana@LaDupla.co", Role: RoleAdmin})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := portal.Users().ByEmail("ana@ladupla.co")
	if err != nil {
		t.Fatalf("ByEmail: %v", err)
	}
	if got.ID != saved.ID {
		t.Errorf("wrong user: %s", got.ID)
	}

	if _, err := portal.Users().ByEmail("nobody@ladupla.co"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestClientSaveFillsReportSlots(t *testing.T) {
	portal := newOfflinePortal(t)

	client, err := portal.Clients().Save(Client{Name: "Aurora", IsActive: true})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if len(client.ReportURLs) != len(ReportSections()) {
		t.Fatalf("expected %d report slots, got %d", len(ReportSections()), len(client.ReportURLs))
	}
	for _, section := range ReportSections() {
		if _, ok := client.ReportURLs[section]; !ok {
			t.Errorf("missing slot %s", section)
		}
	}
}

func TestClientUpdateProfileMergesPatch(t *testing.T) {
	portal := newOfflinePortal(t)
	client := mustSaveClient(t, portal, "Aurora")

	// Attach AI config out of band; the profile edit must not clobber it.
	if _, err := portal.Clients().UpdateAIConfig(client.ID, AIConfig{Prompt: "analyze sales"}); err != nil {
		t.Fatalf("UpdateAIConfig: %v", err)
	}

	loaded, base, err := portal.Clients().ByID(client.ID)
	if err != nil {
		t.Fatalf("ByID: %v", err)
	}
	if loaded.AIConfig == nil {
		t.Fatal("AI config not stored")
	}

	name := "Aurora Studio"
	updated, err := portal.Clients().UpdateProfile(client.ID, ClientProfilePatch{
		Name:       &name,
		ReportURLs: map[ReportSection]string{SectionVentas: "https://lk.example/ventas"},
	}, base)
	if err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}

	if updated.Name != "Aurora Studio" {
		t.Errorf("name not updated: %q", updated.Name)
	}
	if updated.ReportURLs[SectionVentas] != "https://lk.example/ventas" {
		t.Errorf("report slot not updated")
	}
	if updated.ReportURLs[SectionMetaAds] != "" {
		t.Errorf("untouched slot changed: %q", updated.ReportURLs[SectionMetaAds])
	}
	if updated.AIConfig == nil || updated.AIConfig.Prompt != "analyze sales" {
		t.Errorf("profile edit clobbered AI config")
	}
}

func TestClientUpdateProfileStaleBase(t *testing.T) {
	portal := newOfflinePortal(t)
	client := mustSaveClient(t, portal, "Aurora")

	_, base, err := portal.Clients().ByID(client.ID)
	if err != nil {
		t.Fatalf("ByID: %v", err)
	}

	// A concurrent edit lands after the form was loaded.
	other := "Renamed"
	if _, err := portal.Clients().UpdateProfile(client.ID, ClientProfilePatch{Name: &other}, base); err != nil {
		t.Fatalf("first UpdateProfile: %v", err)
	}

	mine := "My Edit"
	_, err = portal.Clients().UpdateProfile(client.ID, ClientProfilePatch{Name: &mine}, base)
	if !errors.Is(err, ErrStaleRecord) {
		t.Fatalf("expected ErrStaleRecord, got %v", err)
	}

	got, _, _ := portal.Clients().ByID(client.ID)
	if got.Name != "Renamed" {
		t.Errorf("stale edit modified record: %q", got.Name)
	}
}

func TestClientUpdateCostingData(t *testing.T) {
	portal := newOfflinePortal(t)
	client := mustSaveClient(t, portal, "Aurora")

	_, err := portal.Clients().UpdateCostingData(client.ID, CostingData{
		FixedCosts: []FixedCost{{ID: "f1", Category: "software", Amount: 120}},
		Products:   []ProductCosting{{ID: "p1", Name: "Remera", Price: 30, ProductCost: 12}},
	})
	if err != nil {
		t.Fatalf("UpdateCostingData: %v", err)
	}

	got, _, _ := portal.Clients().ByID(client.ID)
	if got.CostingData == nil || len(got.CostingData.Products) != 1 {
		t.Fatalf("costing data not stored: %+v", got.CostingData)
	}
}

func TestSessionSaveMintsTaskIdentities(t *testing.T) {
	portal := newOfflinePortal(t)
	client := mustSaveClient(t, portal, "Aurora")

	session, err := portal.Sessions().Save(AuditSession{
		ClientID: client.ID,
		Title:    "Kickoff",
		Type:     SessionMeet,
		Tasks: []AuditTask{
			{Title: "Fix pixel", Urgency: UrgencyUrgent, Category: CategoryMetaAds},
			{Title: "Plan posts", Urgency: UrgencyWeekly, Category: CategoryContenido},
		},
	})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	if session.ID == "" {
		t.Error("session identity not minted")
	}
	for i, task := range session.Tasks {
		if task.ID == "" {
			t.Errorf("task %d identity not minted", i)
		}
	}
}

func TestSessionToggleTaskIsPureFlip(t *testing.T) {
	portal := newOfflinePortal(t)
	client := mustSaveClient(t, portal, "Aurora")

	session, err := portal.Sessions().Save(AuditSession{
		ClientID: client.ID,
		Tasks: []AuditTask{
			{Title: "Fix pixel", Urgency: UrgencyUrgent, Category: CategoryMetaAds},
			{Title: "Plan posts", Urgency: UrgencyWeekly, Category: CategoryContenido},
		},
	})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	taskID := session.Tasks[0].ID

	flipped, err := portal.Sessions().ToggleTask(session.ID, taskID)
	if err != nil {
		t.Fatalf("ToggleTask: %v", err)
	}
	if !flipped.Tasks[0].IsCompleted {
		t.Error("task not completed after first toggle")
	}
	if flipped.Tasks[1].IsCompleted {
		t.Error("sibling task changed")
	}

	// Toggling twice restores the original state.
	restored, err := portal.Sessions().ToggleTask(session.ID, taskID)
	if err != nil {
		t.Fatalf("second ToggleTask: %v", err)
	}
	if restored.Tasks[0].IsCompleted {
		t.Error("task still completed after second toggle")
	}

	if _, err := portal.Sessions().ToggleTask(session.ID, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown task, got %v", err)
	}
}

func TestSessionAllFiltersAndSortsByRecency(t *testing.T) {
	portal := newOfflinePortal(t)
	clientA := mustSaveClient(t, portal, "Aurora")
	clientB := mustSaveClient(t, portal, "Belmonte")

	older := time.Now().UTC().Add(-time.Hour)
	newer := time.Now().UTC()

	if _, err := portal.Sessions().Save(AuditSession{ClientID: clientA.ID, Title: "old", CreatedAt: older}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := portal.Sessions().Save(AuditSession{ClientID: clientA.ID, Title: "new", CreatedAt: newer}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := portal.Sessions().Save(AuditSession{ClientID: clientB.ID, Title: "other"}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	sessions, err := portal.Sessions().All(clientA.ID)
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if len(sessions) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(sessions))
	}
	if sessions[0].Title != "new" || sessions[1].Title != "old" {
		t.Errorf("sessions not in recency order: %s, %s", sessions[0].Title, sessions[1].Title)
	}
}

func TestModulesSortedByOrder(t *testing.T) {
	portal := newOfflinePortal(t)

	for _, m := range []Module{
		{Title: "Advanced", Order: 3},
		{Title: "Basics", Order: 1},
		{Title: "Growth", Order: 2},
	} {
		if _, err := portal.Modules().Save(m); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}

	modules, err := portal.Modules().All()
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	want := []string{"Basics", "Growth", "Advanced"}
	for i, title := range want {
		if modules[i].Title != title {
			t.Errorf("position %d: got %s, want %s", i, modules[i].Title, title)
		}
	}
}

func TestLessonsFilteredByModule(t *testing.T) {
	portal := newOfflinePortal(t)

	m1, _ := portal.Modules().Save(Module{Title: "Basics"})
	m2, _ := portal.Modules().Save(Module{Title: "Growth"})

	if _, err := portal.Lessons().Save(Lesson{ModuleID: m1.ID, Title: "Intro"}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := portal.Lessons().Save(Lesson{ModuleID: m2.ID, Title: "Scaling"}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	lessons, err := portal.Lessons().All(m1.ID)
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if len(lessons) != 1 || lessons[0].Title != "Intro" {
		t.Fatalf("filter wrong: %v", lessons)
	}
}

func TestProgressUpsertsByPair(t *testing.T) {
	portal := newOfflinePortal(t)

	first, err := portal.Progress().Save(UserProgress{
		UserID: "u1", LessonID: "l1", IsCompleted: true,
	})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	// Saving the same pair again replaces, never duplicates.
	second, err := portal.Progress().Save(UserProgress{
		UserID: "u1", LessonID: "l1", IsCompleted: true, TaskCompleted: true,
	})
	if err != nil {
		t.Fatalf("second Save: %v", err)
	}
	if first.ID != second.ID {
		t.Errorf("pair identity changed: %s vs %s", first.ID, second.ID)
	}

	all, err := portal.Progress().All("u1")
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("expected 1 progress record, got %d", len(all))
	}
	if !all[0].TaskCompleted {
		t.Error("second save not applied")
	}

	got, err := portal.Progress().ForLesson("u1", "l1")
	if err != nil {
		t.Fatalf("ForLesson: %v", err)
	}
	if !got.IsCompleted {
		t.Error("lookup returned wrong record")
	}
}

func TestReportsMarkAllRead(t *testing.T) {
	portal := newOfflinePortal(t)
	client := mustSaveClient(t, portal, "Aurora")

	for i := 0; i < 3; i++ {
		if _, err := portal.Reports().Save(AIReport{ClientID: client.ID, Content: "reporte"}); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}
	if _, err := portal.Reports().Save(AIReport{ClientID: "other", Content: "ajeno"}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	unread, err := portal.Reports().Unread(client.ID)
	if err != nil {
		t.Fatalf("Unread: %v", err)
	}
	if unread != 3 {
		t.Fatalf("expected 3 unread, got %d", unread)
	}

	updated, err := portal.Reports().MarkAllRead(client.ID)
	if err != nil {
		t.Fatalf("MarkAllRead: %v", err)
	}
	if updated != 3 {
		t.Errorf("expected 3 updated, got %d", updated)
	}

	// Marking again is a no-op: the flag never flips back.
	updated, err = portal.Reports().MarkAllRead(client.ID)
	if err != nil {
		t.Fatalf("second MarkAllRead: %v", err)
	}
	if updated != 0 {
		t.Errorf("expected 0 updated on second pass, got %d", updated)
	}

	// The other client's report is untouched.
	others, _ := portal.Reports().All("other")
	if len(others) != 1 || others[0].IsReadByClient {
		t.Errorf("unrelated client's report affected: %v", others)
	}
}

func TestReportSaveRequiresContent(t *testing.T) {
	portal := newOfflinePortal(t)

	_, err := portal.Reports().Save(AIReport{ClientID: "c1", Content: "   "})
	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Field != "content" {
		t.Fatalf("expected content ValidationError, got %v", err)
	}
}

func TestDeleteRemovesRecord(t *testing.T) {
	portal := newOfflinePortal(t)
	client := mustSaveClient(t, portal, "Aurora")

	if err := portal.Clients().Delete(client.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, _, err := portal.Clients().ByID(client.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}
