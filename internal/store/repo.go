package store

import (
	"context"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

// QueryOpts configures event queries with filtering and pagination.
type QueryOpts struct {
	Limit  int       // max results (0 = unlimited)
	After  int64     // sequence > After
	Before int64     // sequence < Before
	From   time.Time // timestamp >= From
	To     time.Time // timestamp <= To
}

// apply adds the filters to sel and orders newest first.
func (o QueryOpts) apply(sel *entsql.Selector) *entsql.Selector {
	var preds []*entsql.Predicate
	if o.After > 0 {
		preds = append(preds, entsql.GT("sequence", o.After))
	}
	if o.Before > 0 {
		preds = append(preds, entsql.LT("sequence", o.Before))
	}
	if !o.From.IsZero() {
		preds = append(preds, entsql.GTE("timestamp", o.From.UnixMilli()))
	}
	if !o.To.IsZero() {
		preds = append(preds, entsql.LTE("timestamp", o.To.UnixMilli()))
	}
	if len(preds) > 0 {
		sel = sel.Where(entsql.And(preds...))
	}
	sel = sel.OrderBy(entsql.Desc("sequence"))
	if o.Limit > 0 {
		sel = sel.Limit(o.Limit)
	}
	return sel
}

// Credentials is the persisted sign-in state.
type Credentials struct {
	AccessToken  string
	RefreshToken string
	UserID       string
	UserName     string
	UserEmail    string
	Roles        []string
	UpdatedAt    time.Time
}

// CredentialRepo keeps at most one signed-in session.
type CredentialRepo interface {
	// Load returns the stored credentials, or nil if signed out.
	Load(ctx context.Context) (*Credentials, error)
	Save(ctx context.Context, c Credentials) error
	// UpdateTokens replaces the token pair, keeping the user.
	UpdateTokens(ctx context.Context, access, refresh string) error
	Clear(ctx context.Context) error
}

// SubmissionRecord is one local submission attempt.
type SubmissionRecord struct {
	ID              int
	Sequence        int64
	Timestamp       time.Time
	SessionID       string
	AssessmentID    int
	Answered        int
	Total           int
	AdvisoryCorrect int
	Success         bool
	ErrorMessage    string
}

// SubmissionRepo records submission attempts.
type SubmissionRepo interface {
	Record(ctx context.Context, rec SubmissionRecord) error
	List(ctx context.Context, opts QueryOpts) ([]SubmissionRecord, error)
	// LatestSuccessful returns the newest successful submission for an
	// assessment, or nil.
	LatestSuccessful(ctx context.Context, assessmentID int) (*SubmissionRecord, error)
}

// APIRequestEventData captures one backend HTTP call.
type APIRequestEventData struct {
	RequestID    string
	Method       string
	Path         string
	Status       int
	LatencyMs    int64
	Retried      bool
	Success      bool
	ErrorMessage string
}

// APIRequestEvent is a stored backend call.
type APIRequestEvent struct {
	ID        int
	Sequence  int64
	Timestamp time.Time
	APIRequestEventData
}

// APIPathUsage aggregates calls per method and path.
type APIPathUsage struct {
	Method       string
	Path         string
	Calls        int
	Failures     int
	AvgLatencyMs int64
}

// LLMRequestEventData captures the data for a single LLM request event.
type LLMRequestEventData struct {
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
	RequestBody  string
	ResponseBody string
}

// LLMRequestEvent is a stored LLM call.
type LLMRequestEvent struct {
	ID        int
	Sequence  int64
	Timestamp time.Time
	LLMRequestEventData
}

// LLMUsage aggregates token counts for a purpose or a model.
type LLMUsage struct {
	Purpose      string
	Model        string
	Calls        int
	InputTokens  int
	OutputTokens int
	AvgLatencyMs int64
}

// EventRepo provides append and query access to request events.
type EventRepo interface {
	// AppendLLMRequest records an LLM API call event.
	AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error
	QueryLLMEvents(ctx context.Context, opts QueryOpts) ([]LLMRequestEvent, error)
	// GetLLMEvent returns nil when id does not exist.
	GetLLMEvent(ctx context.Context, id int) (*LLMRequestEvent, error)
	LLMUsageByPurpose(ctx context.Context) ([]LLMUsage, error)
	LLMUsageByModel(ctx context.Context) ([]LLMUsage, error)

	// AppendAPIRequest records a backend HTTP call.
	AppendAPIRequest(ctx context.Context, data APIRequestEventData) error
	QueryAPIEvents(ctx context.Context, opts QueryOpts) ([]APIRequestEvent, error)
	GetAPIEvent(ctx context.Context, id int) (*APIRequestEvent, error)
	APIUsageByPath(ctx context.Context) ([]APIPathUsage, error)
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
