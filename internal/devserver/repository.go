package devserver

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/zuvy/assess/internal/assessment"
	"github.com/zuvy/assess/internal/session"
)

// ErrNotFound is returned for unknown ids.
var ErrNotFound = errors.New("not found")

// ErrAlreadySubmitted is returned for a second submission of an attempt.
var ErrAlreadySubmitted = errors.New("assessment already submitted")

// StoredQuestion is a generated question with its server-only explanation.
type StoredQuestion struct {
	assessment.Question
	Explanation string `json:"explanation"`
}

// QuestionSet is the generation state of one assessment.
type QuestionSet struct {
	Questions []StoredQuestion `json:"questions"`
	Completed bool             `json:"completed"`
}

// SubmissionRecord is a stored student submission.
type SubmissionRecord struct {
	UserID      string             `json:"userId"`
	Submission  session.Submission `json:"submission"`
	SubmittedAt time.Time          `json:"submittedAt"`
}

// Repository stores everything the development backend serves.
type Repository interface {
	NextID(ctx context.Context, kind string) (int, error)

	UpsertUser(ctx context.Context, u assessment.User) (assessment.User, error)
	UserByEmail(ctx context.Context, email string) (*assessment.User, error)

	SaveAssessment(ctx context.Context, a assessment.Assessment) error
	Assessment(ctx context.Context, id int) (*assessment.Assessment, error)
	Assessments(ctx context.Context, bootcampID int) ([]assessment.Assessment, error)

	SaveQuestions(ctx context.Context, assessmentID int, set QuestionSet) error
	Questions(ctx context.Context, assessmentID int) (*QuestionSet, error)

	// SaveSubmission fails with ErrAlreadySubmitted for a repeat submission.
	SaveSubmission(ctx context.Context, rec SubmissionRecord) error
	Submitted(ctx context.Context, userID string, assessmentID int) (bool, error)

	SaveEvaluations(ctx context.Context, userID string, assessmentID int, evals []assessment.Evaluation) error
	Evaluations(ctx context.Context, userID string, assessmentID int) ([]assessment.Evaluation, error)

	RevokeToken(ctx context.Context, id string, until time.Time) error
	Revoked(ctx context.Context, id string) (bool, error)

	Close() error
}

// MemoryRepository keeps state in maps for the life of the process.
type MemoryRepository struct {
	mu          sync.Mutex
	seq         map[string]int
	users       map[string]assessment.User
	assessments map[int]assessment.Assessment
	questions   map[int]QuestionSet
	submissions map[string]SubmissionRecord
	evaluations map[string][]assessment.Evaluation
	revoked     map[string]time.Time
	now         func() time.Time
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		seq:         make(map[string]int),
		users:       make(map[string]assessment.User),
		assessments: make(map[int]assessment.Assessment),
		questions:   make(map[int]QuestionSet),
		submissions: make(map[string]SubmissionRecord),
		evaluations: make(map[string][]assessment.Evaluation),
		revoked:     make(map[string]time.Time),
		now:         time.Now,
	}
}

func attemptKey(userID string, assessmentID int) string {
	return userID + "/" + strconv.Itoa(assessmentID)
}

func (m *MemoryRepository) NextID(_ context.Context, kind string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq[kind]++
	return m.seq[kind], nil
}

func (m *MemoryRepository) UpsertUser(ctx context.Context, u assessment.User) (assessment.User, error) {
	key := strings.ToLower(u.Email)
	m.mu.Lock()
	existing, ok := m.users[key]
	m.mu.Unlock()
	if ok {
		if u.Name != "" {
			existing.Name = u.Name
		}
		existing.RolesList = u.RolesList
		u = existing
	} else if u.ID == "" {
		id, _ := m.NextID(ctx, "user")
		u.ID = strconv.Itoa(id)
	}
	m.mu.Lock()
	m.users[key] = u
	m.mu.Unlock()
	return u, nil
}

func (m *MemoryRepository) UserByEmail(_ context.Context, email string) (*assessment.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[strings.ToLower(email)]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (m *MemoryRepository) SaveAssessment(_ context.Context, a assessment.Assessment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.assessments[a.ID] = a
	return nil
}

func (m *MemoryRepository) Assessment(_ context.Context, id int) (*assessment.Assessment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.assessments[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &a, nil
}

func (m *MemoryRepository) Assessments(_ context.Context, bootcampID int) ([]assessment.Assessment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]assessment.Assessment, 0, len(m.assessments))
	for _, a := range m.assessments {
		if bootcampID <= 0 || a.BootcampID == bootcampID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemoryRepository) SaveQuestions(_ context.Context, assessmentID int, set QuestionSet) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.questions[assessmentID] = set
	return nil
}

func (m *MemoryRepository) Questions(_ context.Context, assessmentID int) (*QuestionSet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	set, ok := m.questions[assessmentID]
	if !ok {
		return nil, ErrNotFound
	}
	set.Questions = append([]StoredQuestion(nil), set.Questions...)
	return &set, nil
}

func (m *MemoryRepository) SaveSubmission(_ context.Context, rec SubmissionRecord) error {
	key := attemptKey(rec.UserID, rec.Submission.AIAssessmentID)
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.submissions[key]; ok {
		return ErrAlreadySubmitted
	}
	m.submissions[key] = rec
	return nil
}

func (m *MemoryRepository) Submitted(_ context.Context, userID string, assessmentID int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.submissions[attemptKey(userID, assessmentID)]
	return ok, nil
}

func (m *MemoryRepository) SaveEvaluations(_ context.Context, userID string, assessmentID int, evals []assessment.Evaluation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.evaluations[attemptKey(userID, assessmentID)] = evals
	return nil
}

func (m *MemoryRepository) Evaluations(_ context.Context, userID string, assessmentID int) ([]assessment.Evaluation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	evals, ok := m.evaluations[attemptKey(userID, assessmentID)]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]assessment.Evaluation(nil), evals...), nil
}

func (m *MemoryRepository) RevokeToken(_ context.Context, id string, until time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.revoked[id] = until
	return nil
}

func (m *MemoryRepository) Revoked(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	until, ok := m.revoked[id]
	if ok && m.now().After(until) {
		delete(m.revoked, id)
		return false, nil
	}
	return ok, nil
}

func (m *MemoryRepository) Close() error { return nil }
