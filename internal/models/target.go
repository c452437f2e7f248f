package models

import "fmt"

// TargetKind says which kind of content a Target points at.
type TargetKind int

const (
	TargetQuestion TargetKind = iota + 1
	TargetAnswer
)

// Target is a tagged reference to either a question or an answer. Votes
// and comments carry two nullable foreign keys in the database; in code
// they travel as a Target so "exactly one of question_id/answer_id" holds
// by construction.
type Target struct {
	kind TargetKind
	id   int
}

func QuestionTarget(id int) Target {
	return Target{kind: TargetQuestion, id: id}
}

func AnswerTarget(id int) Target {
	return Target{kind: TargetAnswer, id: id}
}

func (t Target) Kind() TargetKind { return t.kind }
func (t Target) ID() int          { return t.id }

func (t Target) IsQuestion() bool { return t.kind == TargetQuestion }
func (t Target) IsAnswer() bool   { return t.kind == TargetAnswer }

// QuestionID returns the value for the question_id column (nil unless the
// target is a question).
func (t Target) QuestionID() *int {
	if t.kind == TargetQuestion {
		id := t.id
		return &id
	}
	return nil
}

// AnswerID returns the value for the answer_id column (nil unless the
// target is an answer).
func (t Target) AnswerID() *int {
	if t.kind == TargetAnswer {
		id := t.id
		return &id
	}
	return nil
}

func (t Target) String() string {
	switch t.kind {
	case TargetQuestion:
		return fmt.Sprintf("question:%d", t.id)
	case TargetAnswer:
		return fmt.Sprintf("answer:%d", t.id)
	}
	return fmt.Sprintf("unknown:%d", t.id)
}
