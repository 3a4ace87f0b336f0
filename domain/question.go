package domain

// Question is immutable once loaded from a source: the engine never edits
// prompts or answers, it only copies them into room state.
type Question struct {
	Prompt       string
	Answer       string
	Category     string
	WrongAnswers []string
}
