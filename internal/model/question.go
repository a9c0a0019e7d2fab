package model

import (
	"github.com/google/uuid"
)

// Question represents a single multiple-choice question with four options.
// CorrectOption is never serialized on candidate-facing paths.
type Question struct {
	ID            uuid.UUID `json:"id"`
	TestID        uuid.UUID `json:"testId"`
	Text          string    `json:"text"`
	OptionA       string    `json:"optionA"`
	OptionB       string    `json:"optionB"`
	OptionC       string    `json:"optionC"`
	OptionD       string    `json:"optionD"`
	CorrectOption string    `json:"-"`
	OrderNum      int       `json:"orderNum"`
}

// QuestionForCandidate is a question stripped of its correct option.
type QuestionForCandidate struct {
	ID      uuid.UUID `json:"id"`
	Text    string    `json:"text"`
	OptionA string    `json:"optionA"`
	OptionB string    `json:"optionB"`
	OptionC string    `json:"optionC"`
	OptionD string    `json:"optionD"`
}

// ForCandidate returns the candidate-safe view of the question.
func (q *Question) ForCandidate() QuestionForCandidate {
	return QuestionForCandidate{
		ID:      q.ID,
		Text:    q.Text,
		OptionA: q.OptionA,
		OptionB: q.OptionB,
		OptionC: q.OptionC,
		OptionD: q.OptionD,
	}
}

// CreateQuestionRequest is one question inside an admin create-test payload.
type CreateQuestionRequest struct {
	Text          string `json:"text" binding:"required,min=1,max=2000"`
	OptionA       string `json:"optionA" binding:"required,max=500"`
	OptionB       string `json:"optionB" binding:"required,max=500"`
	OptionC       string `json:"optionC" binding:"required,max=500"`
	OptionD       string `json:"optionD" binding:"required,max=500"`
	CorrectOption string `json:"correctOption" binding:"required,oneof=A B C D"`
}
