package assessment

import (
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Form messages shown to administrators.
const (
	MsgRequiredFields   = "Please fill in all required fields"
	MsgDatesRequired    = "Please select both start date and end date"
	MsgStartInPast      = "Start date cannot be in the past"
	MsgEndBeforeStart   = "End date must be after start date"
	MsgTopicName        = "Topic name is required"
	MsgTopicCount       = "Question count must be greater than 0"
	MsgTopicDuplicate   = "Topic already added"
	MsgNoAnswers        = "Please answer at least one question before submitting."
	MsgSessionExpired   = "Your session has expired. Please log in again."
	MsgNoQuestionsFound = "No questions available for this assessment"
)

// Topic is one topic of a draft with the number of questions to generate.
type Topic struct {
	Name  string `json:"name" validate:"required"`
	Count int    `json:"count" validate:"gt=0"`
}

// Draft is an assessment configuration being edited by an administrator.
type Draft struct {
	BootcampID  int       `validate:"required,gt=0"`
	Title       string    `validate:"required"`
	Description string    `validate:"required"`
	Topics      []Topic   `validate:"min=1,dive"`
	Start       time.Time `validate:"-"`
	End         time.Time `validate:"-"`
}

var structValidator = validator.New()

// AddTopic appends a topic, rejecting blank names, non-positive counts and
// duplicates (case-insensitive).
func (d *Draft) AddTopic(name string, count int) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ValidationError{Field: "topic", Message: MsgTopicName, Rule: "required"}
	}
	if count <= 0 {
		return ValidationError{Field: "count", Message: MsgTopicCount, Value: count, Rule: "gt"}
	}
	for _, t := range d.Topics {
		if strings.EqualFold(t.Name, name) {
			return ValidationError{Field: "topic", Message: MsgTopicDuplicate, Value: name, Rule: "unique"}
		}
	}
	d.Topics = append(d.Topics, Topic{Name: name, Count: count})
	return nil
}

// RemoveTopic drops the named topic; it reports whether one was removed.
func (d *Draft) RemoveTopic(name string) bool {
	for i, t := range d.Topics {
		if strings.EqualFold(t.Name, strings.TrimSpace(name)) {
			d.Topics = append(d.Topics[:i], d.Topics[i+1:]...)
			return true
		}
	}
	return false
}

// TotalQuestions sums the per-topic counts.
func (d *Draft) TotalQuestions() int {
	total := 0
	for _, t := range d.Topics {
		total += t.Count
	}
	return total
}

// Validate checks the draft the same way the create form does, stopping at
// the first failing group. Start dates are compared against local midnight
// of now's day.
func (d *Draft) Validate(now time.Time) error {
	norm := *d
	norm.Title = strings.TrimSpace(d.Title)
	norm.Description = strings.TrimSpace(d.Description)

	if err := structValidator.Struct(norm); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}
		out := make(ValidationErrors, 0, len(verrs))
		for _, fe := range verrs {
			out = append(out, ValidationError{
				Field:   fe.Field(),
				Message: MsgRequiredFields,
				Value:   fe.Value(),
				Rule:    fe.Tag(),
			})
		}
		return out
	}

	if d.Start.IsZero() || d.End.IsZero() {
		return ValidationErrors{{Field: "dates", Message: MsgDatesRequired, Rule: "required"}}
	}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if d.Start.Before(today) {
		return ValidationErrors{{Field: "start", Message: MsgStartInPast, Value: d.Start, Rule: "future"}}
	}
	if !d.End.After(d.Start) {
		return ValidationErrors{{Field: "end", Message: MsgEndBeforeStart, Value: d.End, Rule: "gtfield"}}
	}
	return nil
}

// CreateRequest is the payload of POST /ai-assessment.
type CreateRequest struct {
	BootcampID             int            `json:"bootcampId" validate:"required,gt=0"`
	Title                  string         `json:"title" validate:"required"`
	Description            string         `json:"description" validate:"required"`
	Topics                 map[string]int `json:"topics" validate:"required,min=1,dive,keys,required,endkeys,gt=0"`
	TotalNumberOfQuestions int            `json:"totalNumberOfQuestions" validate:"gt=0"`
	StartDatetime          time.Time      `json:"startDatetime" validate:"required"`
	EndDatetime            time.Time      `json:"endDatetime" validate:"required,gtfield=StartDatetime"`
}

// Validate applies the struct rules of the create payload.
func (r CreateRequest) Validate() error {
	if err := structValidator.Struct(r); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}
		out := make(ValidationErrors, 0, len(verrs))
		for _, fe := range verrs {
			out = append(out, ValidationError{
				Field:   fe.Field(),
				Message: fe.Field() + " failed " + fe.Tag(),
				Value:   fe.Value(),
				Rule:    fe.Tag(),
			})
		}
		return out
	}
	return nil
}

// CreateRequest builds the create payload. Call Validate first.
func (d *Draft) CreateRequest() CreateRequest {
	topics := make(map[string]int, len(d.Topics))
	for _, t := range d.Topics {
		topics[t.Name] = t.Count
	}
	return CreateRequest{
		BootcampID:             d.BootcampID,
		Title:                  strings.TrimSpace(d.Title),
		Description:            strings.TrimSpace(d.Description),
		Topics:                 topics,
		TotalNumberOfQuestions: d.TotalQuestions(),
		StartDatetime:          d.Start,
		EndDatetime:            d.End,
	}
}
