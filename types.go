package portalsync

import (
	"strings"
	"time"
)

// Kind identifies one of the synchronized record collections. The string
// value doubles as the remote table path for that collection.
type Kind string

const (
	KindUsers     Kind = "users"
	KindClients   Kind = "clients"
	KindSessions  Kind = "sessions"
	KindModules   Kind = "modules"
	KindLessons   Kind = "lessons"
	KindProgress  Kind = "progress"
	KindAIReports Kind = "ai_reports"
)

// Kinds returns every synchronized collection kind, in the order the
// reconciler pulls them.
func Kinds() []Kind {
	return []Kind{
		KindUsers,
		KindClients,
		KindSessions,
		KindModules,
		KindLessons,
		KindProgress,
		KindAIReports,
	}
}

// IsValid checks if the kind names a known collection.
func (k Kind) IsValid() bool {
	for _, valid := range Kinds() {
		if k == valid {
			return true
		}
	}
	return false
}

// Role determines which portal surface a user sees.
type Role string

const (
	RoleAdmin  Role = "ADMIN"
	RoleClient Role = "CLIENT"
)

// IsValid checks if the role is a known role.
func (r Role) IsValid() bool {
	return r == RoleAdmin || r == RoleClient
}

// ReportSection is one of the fixed embedded-report slots on a client.
type ReportSection string

const (
	SectionVentas         ReportSection = "ventas"
	SectionMetaAds        ReportSection = "meta_ads"
	SectionTikTokAds      ReportSection = "tiktok_ads"
	SectionGoogleAds      ReportSection = "google_ads"
	SectionContenido      ReportSection = "contenido"
	SectionComunidad      ReportSection = "comunidad"
	SectionCRCE           ReportSection = "crce"
	SectionSegmentaciones ReportSection = "segmentaciones"
	SectionCreativos      ReportSection = "creativos"
)

// ReportSections returns every fixed report-section key. Client records carry
// one reportUrls entry per section.
func ReportSections() []ReportSection {
	return []ReportSection{
		SectionVentas,
		SectionMetaAds,
		SectionTikTokAds,
		SectionGoogleAds,
		SectionContenido,
		SectionComunidad,
		SectionCRCE,
		SectionSegmentaciones,
		SectionCreativos,
	}
}

// TaskUrgency classifies how soon an audit task needs attention.
type TaskUrgency string

const (
	UrgencyUrgent    TaskUrgency = "urgent"
	UrgencyAttention TaskUrgency = "attention"
	UrgencyWeekly    TaskUrgency = "weekly"
)

// IsValid checks if the urgency is a known urgency level.
func (u TaskUrgency) IsValid() bool {
	return u == UrgencyUrgent || u == UrgencyAttention || u == UrgencyWeekly
}

// TaskCategory groups audit tasks by marketing channel.
type TaskCategory string

const (
	CategoryTienda         TaskCategory = "tienda"
	CategoryMetaAds        TaskCategory = "meta_ads"
	CategoryContenido      TaskCategory = "contenido"
	CategoryGoogleAds      TaskCategory = "google_ads"
	CategoryEmailMarketing TaskCategory = "email_marketing"
	CategoryTikTokAds      TaskCategory = "tiktok_ads"
	CategoryConversiones   TaskCategory = "conversiones"
)

// User is a portal account. CLIENT-role users are bound to a Client record.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"passwordHash,omitempty"`
	Name         string    `json:"name"`
	Role         Role      `json:"role"`
	ClientID     string    `json:"clientId,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Validate checks constructor-level invariants for a user record.
func (u *User) Validate() error {
	if strings.TrimSpace(u.Email) == "" {
		return &ValidationError{Field: "email", Message: "required"}
	}
	if !u.Role.IsValid() {
		return &ValidationError{Field: "role", Message: "must be ADMIN or CLIENT"}
	}
	if u.Role == RoleClient && u.ClientID == "" {
		return &ValidationError{Field: "clientId", Message: "required for CLIENT role"}
	}
	return nil
}

// AIConfig holds the per-client AI analyst configuration, including ad
// platform credentials used when generating reports.
type AIConfig struct {
	Prompt         string       `json:"prompt"`
	MetaToken      string       `json:"metaToken,omitempty"`
	MetaAccountID  string       `json:"metaAccountId,omitempty"`
	AnalyticsID    string       `json:"analyticsId,omitempty"`
	AnalyticsToken string       `json:"analyticsToken,omitempty"`
	LastMetrics    *LastMetrics `json:"lastMetrics,omitempty"`
}

// LastMetrics caches the most recent product analytics snapshot.
type LastMetrics struct {
	TopSold    []ProductMetric `json:"topSold"`
	TopVisited []ProductMetric `json:"topVisited"`
	TopAdded   []ProductMetric `json:"topAdded"`
}

// ProductMetric is a single named analytics value.
type ProductMetric struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// Installment is one payment within a client's mentorship billing plan.
type Installment struct {
	ID     string  `json:"id"`
	Number int     `json:"number"`
	Amount float64 `json:"amount"`
	IsPaid bool    `json:"isPaid"`
	PaidAt string  `json:"paidAt,omitempty"`
}

// BillingData holds a client's mentorship billing plan. The installment sum
// is not required to match the total.
type BillingData struct {
	TotalMentorshipValue float64       `json:"totalMentorshipValue"`
	Installments         []Installment `json:"installments"`
}

// FixedCost is a recurring cost entry used in profitability analysis.
type FixedCost struct {
	ID          string  `json:"id"`
	Category    string  `json:"category"`
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
}

// ProductCosting captures per-product unit economics.
type ProductCosting struct {
	ID                 string  `json:"id"`
	Code               string  `json:"code"`
	Name               string  `json:"name"`
	Price              float64 `json:"price"`
	ProductCost        float64 `json:"productCost"`
	Packaging          float64 `json:"packaging"`
	ShippingAvg        float64 `json:"shippingAvg"`
	IsFreeShipping     bool    `json:"isFreeShipping"`
	CommissionPercent  float64 `json:"commissionPercent"`
	OtherVariableCosts float64 `json:"otherVariableCosts"`
	AdCostPerSale      float64 `json:"adCostPerSale"`
}

// CostingData bundles a client's fixed costs and product costings.
type CostingData struct {
	FixedCosts []FixedCost      `json:"fixedCosts"`
	Products   []ProductCosting `json:"products"`
}

// Client is an agency client account with its embedded-report slots,
// AI configuration, billing plan, and costing data.
type Client struct {
	ID          string                   `json:"id"`
	Name        string                   `json:"name"`
	Logo        string                   `json:"logo,omitempty"`
	ReportURLs  map[ReportSection]string `json:"reportUrls"`
	AIConfig    *AIConfig                `json:"aiConfig,omitempty"`
	Billing     *BillingData             `json:"billing,omitempty"`
	CostingData *CostingData             `json:"costingData,omitempty"`
	IsActive    bool                     `json:"isActive"`
	CreatedAt   time.Time                `json:"createdAt"`
}

// NewClient builds an active client with one report slot per fixed section.
func NewClient(name string) Client {
	urls := make(map[ReportSection]string, len(ReportSections()))
	for _, section := range ReportSections() {
		urls[section] = ""
	}
	return Client{
		Name:       name,
		ReportURLs: urls,
		IsActive:   true,
	}
}

// Validate checks constructor-level invariants for a client record.
func (c *Client) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return &ValidationError{Field: "name", Message: "required"}
	}
	return nil
}

// SessionType distinguishes in-person audit meetings from virtual reviews.
type SessionType string

const (
	SessionMeet    SessionType = "meet"
	SessionVirtual SessionType = "virtual"
)

// AuditTask is an action item inside an audit session. Tasks are owned by
// their session and are never synchronized on their own.
type AuditTask struct {
	ID             string       `json:"id"`
	Title          string       `json:"title"`
	Description    string       `json:"description"`
	ImportantNotes string       `json:"importantNotes,omitempty"`
	Urgency        TaskUrgency  `json:"urgency"`
	Category       TaskCategory `json:"category"`
	IsCompleted    bool         `json:"isCompleted"`
	CreatedAt      time.Time    `json:"createdAt"`
}

// AuditSession is a recorded audit meeting with its ordered task list.
type AuditSession struct {
	ID              string      `json:"id"`
	ClientID        string      `json:"clientId"`
	Title           string      `json:"title"`
	Type            SessionType `json:"type"`
	Date            string      `json:"date"`
	Summary         string      `json:"summary"`
	Tasks           []AuditTask `json:"tasks"`
	CampaignActions string      `json:"campaignActions"`
	RecordingURL    string      `json:"recordingUrl,omitempty"`
	CreatedAt       time.Time   `json:"createdAt"`
}

// Validate checks constructor-level invariants for an audit session.
func (s *AuditSession) Validate() error {
	if s.ClientID == "" {
		return &ValidationError{Field: "clientId", Message: "required"}
	}
	for i := range s.Tasks {
		if !s.Tasks[i].Urgency.IsValid() {
			return &ValidationError{Field: "tasks.urgency", Message: "must be urgent, attention or weekly"}
		}
	}
	return nil
}

// Module is a training module. Order defines display sequence and is not
// required to be unique.
type Module struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Order       int    `json:"order"`
}

// Validate checks constructor-level invariants for a module record.
func (m *Module) Validate() error {
	if strings.TrimSpace(m.Title) == "" {
		return &ValidationError{Field: "title", Message: "required"}
	}
	return nil
}

// Lesson is a training lesson belonging to a module.
type Lesson struct {
	ID              string `json:"id"`
	ModuleID        string `json:"moduleId"`
	Title           string `json:"title"`
	Content         string `json:"content"`
	VideoURL        string `json:"videoUrl"`
	TaskDescription string `json:"taskDescription"`
	TemplateURL     string `json:"templateUrl,omitempty"`
}

// Validate checks constructor-level invariants for a lesson record.
func (l *Lesson) Validate() error {
	if l.ModuleID == "" {
		return &ValidationError{Field: "moduleId", Message: "required"}
	}
	return nil
}

// UserProgress records a user's completion state for a lesson. At most one
// record exists per (user, lesson) pair; the record identity is derived from
// that pair so repeated saves upsert in place.
type UserProgress struct {
	ID            string `json:"id"`
	UserID        string `json:"userId"`
	LessonID      string `json:"lessonId"`
	IsCompleted   bool   `json:"isCompleted"`
	TaskCompleted bool   `json:"taskCompleted"`
	CompletedAt   string `json:"completedAt"`
}

// Key returns the derived identity for the (user, lesson) pair.
func (p *UserProgress) Key() string {
	return p.UserID + ":" + p.LessonID
}

// Validate checks constructor-level invariants for a progress record.
func (p *UserProgress) Validate() error {
	if p.UserID == "" {
		return &ValidationError{Field: "userId", Message: "required"}
	}
	if p.LessonID == "" {
		return &ValidationError{Field: "lessonId", Message: "required"}
	}
	return nil
}

// AIReport is a generated analyst report for a client. IsReadByClient only
// transitions false to true, never back.
type AIReport struct {
	ID             string    `json:"id"`
	ClientID       string    `json:"clientId"`
	Content        string    `json:"content"`
	IsReadByClient bool      `json:"isReadByClient"`
	CreatedAt      time.Time `json:"createdAt"`
}

// Validate checks constructor-level invariants for an AI report.
func (r *AIReport) Validate() error {
	if r.ClientID == "" {
		return &ValidationError{Field: "clientId", Message: "required"}
	}
	if strings.TrimSpace(r.Content) == "" {
		return &ValidationError{Field: "content", Message: "required"}
	}
	return nil
}

// MirrorStatus tracks whether a cached record has reached the remote mirror.
type MirrorStatus string

const (
	// MirrorPending marks records written locally but not yet acknowledged
	// by the remote mirror.
	MirrorPending MirrorStatus = "pending"
	// MirrorSynced marks records the remote mirror has acknowledged.
	MirrorSynced MirrorStatus = "synced"
)

// StoreStats contains statistics about the local cache.
type StoreStats struct {
	RecordCounts  map[Kind]int `json:"record_counts"`
	PendingMirror int          `json:"pending_mirror"`
	LastSync      time.Time    `json:"last_sync"`
	SchemaVersion string       `json:"schema_version"`
}

// HealthStatus reports the health of the portal client.
type HealthStatus struct {
	Healthy         bool   `json:"healthy"`
	StoreOK         bool   `json:"store_ok"`
	RemoteReachable bool   `json:"remote_reachable"`
	Error           string `json:"error,omitempty"`
}
