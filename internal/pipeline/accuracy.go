package pipeline

import (
	"strconv"
)

// MatchStatus is the outcome for one accuracy row. The service reports
// "Correct"; every other value counts as incorrect.
type MatchStatus string

// Known statuses.
const (
	StatusCorrect   MatchStatus = "Correct"
	StatusIncorrect MatchStatus = "Incorrect"
)

// IsCorrect reports whether the row was matched correctly.
func (s MatchStatus) IsCorrect() bool {
	return s == StatusCorrect
}

// AccuracyRow compares the predicted mapping of one external product with
// the operator-supplied answer.
type AccuracyRow struct {
	External          string      `json:"external"`
	ActualInternal    string      `json:"actual_internal"`
	PredictedInternal string      `json:"predicted_internal"`
	Status            MatchStatus `json:"status"`
}

// AccuracyReport is the check-accuracy response.
type AccuracyReport struct {
	Results  []AccuracyRow `json:"results"`
	Accuracy float64       `json:"accuracy"`
}

// ScoreText renders the score as shown to the operator, e.g. "87.5%".
func (r AccuracyReport) ScoreText() string {
	return FormatScore(r.Accuracy)
}

// Correct counts rows with StatusCorrect.
func (r AccuracyReport) Correct() int {
	n := 0
	for _, row := range r.Results {
		if row.Status.IsCorrect() {
			n++
		}
	}
	return n
}

// FormatScore renders a 0–100 score with a percent sign.
func FormatScore(score float64) string {
	return strconv.FormatFloat(score, 'f', -1, 64) + "%"
}
