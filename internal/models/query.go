package models

import (
	"errors"
	"strings"
)

// ErrEmptyQuestion is returned when a question is blank.
var ErrEmptyQuestion = errors.New("question cannot be empty")

// Question is an ask request.
type Question struct {
	Text           string `json:"question"`
	IncludeSources bool   `json:"include_sources,omitempty"`
}

// Validate trims the question text and rejects blank questions.
func (q *Question) Validate() error {
	q.Text = strings.TrimSpace(q.Text)
	if q.Text == "" {
		return ErrEmptyQuestion
	}
	return nil
}
