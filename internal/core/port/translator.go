package port

import "context"

// TranslateRequest is one attempt at turning a question into SQL.
type TranslateRequest struct {
	Question string
	Schema   string
	// Feedback carries the error from the previous attempt, if any.
	Feedback string
}

type TranslateResult struct {
	SQL      string
	Provider string
	Model    string
}

// Translator converts natural language into SQL text. Implementations return
// the raw model output; cleaning happens in the caller.
type Translator interface {
	Translate(ctx context.Context, req TranslateRequest) (TranslateResult, error)
}
