package assessment

import (
	"bytes"
	"encoding/json"
	"time"
)

// Option is one answer choice of a backend question. OptionNumber is
// 1-based, unique within the question and defines display order.
type Option struct {
	ID           int    `json:"id"`
	QuestionID   int    `json:"questionId"`
	OptionText   string `json:"optionText"`
	OptionNumber int    `json:"optionNumber"`
}

// Question is a generated question as returned by the LLM API.
// Records are read-only once fetched.
type Question struct {
	ID             int       `json:"id"`
	AIAssessmentID int       `json:"aiAssessmentId"`
	Question       string    `json:"question"`
	Topic          string    `json:"topic"`
	Difficulty     string    `json:"difficulty"`
	Language       string    `json:"language"`
	Options        []Option  `json:"options"`
	CorrectOption  Option    `json:"correctOption"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// OptionByNumber returns the option with the given number.
func (q Question) OptionByNumber(n int) (Option, bool) {
	for _, o := range q.Options {
		if o.OptionNumber == n {
			return o, true
		}
	}
	return Option{}, false
}

// QuestionsPage is the canonical response of the questions endpoint.
type QuestionsPage struct {
	Questions   []Question `json:"questions"`
	IsCompleted bool       `json:"isCompleted"`
}

// Assessment is an assessment configuration as administered per bootcamp.
type Assessment struct {
	ID                       int            `json:"id"`
	BootcampID               int            `json:"bootcampId"`
	Title                    string         `json:"title"`
	Description              string         `json:"description"`
	Difficulty               string         `json:"difficulty,omitempty"`
	Audience                 string         `json:"audience,omitempty"`
	Topics                   map[string]int `json:"topics"`
	TotalNumberOfQuestions   int            `json:"totalNumberOfQuestions"`
	TotalQuestionsWithBuffer int            `json:"totalQuestionsWithBuffer,omitempty"`
	StartDatetime            time.Time      `json:"startDatetime"`
	EndDatetime              time.Time      `json:"endDatetime"`
	CreatedAt                time.Time      `json:"createdAt"`
	UpdatedAt                time.Time      `json:"updatedAt"`
}

// StatusSubmitted marks a student assessment the student already submitted.
const StatusSubmitted = 1

// StudentAssessment is an assessment as seen by one student.
type StudentAssessment struct {
	Assessment
	Status int `json:"status"`
}

// Submitted reports whether the student has already submitted.
func (a StudentAssessment) Submitted() bool {
	return a.Status == StatusSubmitted
}

// QuestionEvaluation is the server's stored snapshot of one answered question.
// SelectedAnswerByStudent holds the selected option id, or -1.
type QuestionEvaluation struct {
	ID                      int       `json:"id"`
	AIAssessmentID          int       `json:"aiAssessmentId"`
	QuestionID              int       `json:"questionId"`
	Question                string    `json:"question"`
	Topic                   string    `json:"topic"`
	Difficulty              string    `json:"difficulty"`
	Options                 []Option  `json:"options"`
	SelectedAnswerByStudent int       `json:"selectedAnswerByStudent"`
	Language                string    `json:"language"`
	Status                  *string   `json:"status"`
	Explanation             string    `json:"explanation"`
	Summary                 string    `json:"summary"`
	Recommendations         string    `json:"recommendations"`
	StudentID               int       `json:"studentId"`
	CreatedAt               time.Time `json:"createdAt"`
	UpdatedAt               time.Time `json:"updatedAt"`
}

// Evaluation pairs a question snapshot with the authoritative correct option.
type Evaluation struct {
	QuestionEvaluation QuestionEvaluation `json:"questionEvaluation"`
	CorrectOptionID    int                `json:"correctOptionId"`
}

// Correct reports whether the student picked the correct option.
func (e Evaluation) Correct() bool {
	return e.QuestionEvaluation.SelectedAnswerByStudent == e.CorrectOptionID
}

// User is the signed-in account returned by the main API.
type User struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Email     string   `json:"email"`
	RolesList []string `json:"rolesList"`
}

// UnmarshalJSON accepts the id as either a JSON string or a number.
func (u *User) UnmarshalJSON(data []byte) error {
	type plain User
	var raw struct {
		plain
		ID json.RawMessage `json:"id"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*u = User(raw.plain)
	u.ID = ""
	id := bytes.TrimSpace(raw.ID)
	switch {
	case len(id) == 0 || bytes.Equal(id, []byte("null")):
	case id[0] == '"':
		return json.Unmarshal(id, &u.ID)
	default:
		var n json.Number
		if err := json.Unmarshal(id, &n); err != nil {
			return err
		}
		u.ID = n.String()
	}
	return nil
}

// HasRole reports whether the user carries role (case-insensitive).
func (u User) HasRole(role string) bool {
	for _, r := range u.RolesList {
		if equalFold(r, role) {
			return true
		}
	}
	return false
}
