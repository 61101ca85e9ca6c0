package results

import (
	"math"

	"github.com/zuvy/assess/internal/assessment"
)

// PassThreshold is the minimum percentage score that passes.
const PassThreshold = 60

// DefaultLanguage is reported when evaluations carry no language.
const DefaultLanguage = "Programming"

// TopicStats is the per-topic breakdown.
type TopicStats struct {
	Topic    string
	Correct  int
	Total    int
	Accuracy int
}

// Stats aggregates a set of evaluation records.
type Stats struct {
	Total           int
	Correct         int
	Score           int
	Passed          bool
	Topics          []TopicStats
	Summary         string
	Recommendations string
	Language        string
}

// Incorrect returns the number of wrong or skipped answers.
func (s Stats) Incorrect() int {
	return s.Total - s.Correct
}

// ComputeStats aggregates evaluations. Topics keep first-seen order.
// An empty input yields zero totals and Passed false.
func ComputeStats(evals []assessment.Evaluation) Stats {
	stats := Stats{Language: DefaultLanguage}
	if len(evals) == 0 {
		return stats
	}

	first := evals[0].QuestionEvaluation
	stats.Summary = first.Summary
	stats.Recommendations = first.Recommendations
	if first.Language != "" {
		stats.Language = first.Language
	}

	index := make(map[string]int)
	for _, e := range evals {
		correct := e.Correct()
		stats.Total++
		if correct {
			stats.Correct++
		}

		topic := e.QuestionEvaluation.Topic
		i, ok := index[topic]
		if !ok {
			i = len(stats.Topics)
			index[topic] = i
			stats.Topics = append(stats.Topics, TopicStats{Topic: topic})
		}
		stats.Topics[i].Total++
		if correct {
			stats.Topics[i].Correct++
		}
	}

	for i := range stats.Topics {
		stats.Topics[i].Accuracy = Percent(stats.Topics[i].Correct, stats.Topics[i].Total)
	}
	stats.Score = Percent(stats.Correct, stats.Total)
	stats.Passed = stats.Score >= PassThreshold
	return stats
}

// Percent returns round(part/total*100) with halves rounded up, or 0 when
// total is 0.
func Percent(part, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Floor(float64(part)*100/float64(total) + 0.5))
}

// Rating buckets a score for display.
type Rating int

const (
	NeedsImprovement Rating = iota
	Good
	Excellent
)

func (r Rating) String() string {
	switch r {
	case Excellent:
		return "Excellent"
	case Good:
		return "Good"
	default:
		return "Needs Improvement"
	}
}

// Rate buckets a percentage score.
func Rate(score int) Rating {
	switch {
	case score >= 80:
		return Excellent
	case score >= PassThreshold:
		return Good
	default:
		return NeedsImprovement
	}
}
