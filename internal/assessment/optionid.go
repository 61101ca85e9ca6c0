package assessment

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	optionIDPrefix   = "option"
	questionIDPrefix = "q"
)

// EncodeOptionID builds the synthetic option id "option-{questionID}-{optionNumber}".
func EncodeOptionID(questionID, optionNumber int) string {
	return fmt.Sprintf("%s-%d-%d", optionIDPrefix, questionID, optionNumber)
}

// DecodeOptionID reverses EncodeOptionID.
func DecodeOptionID(id string) (questionID, optionNumber int, err error) {
	parts := strings.Split(id, "-")
	if len(parts) != 3 || parts[0] != optionIDPrefix {
		return 0, 0, fmt.Errorf("malformed option id %q", id)
	}
	questionID, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("option id %q: question: %w", id, err)
	}
	optionNumber, err = strconv.Atoi(parts[2])
	if err != nil {
		return 0, 0, fmt.Errorf("option id %q: option number: %w", id, err)
	}
	return questionID, optionNumber, nil
}

// UIQuestionID builds the UI-local question id "q-{questionID}".
func UIQuestionID(questionID int) string {
	return fmt.Sprintf("%s-%d", questionIDPrefix, questionID)
}

func equalFold(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
