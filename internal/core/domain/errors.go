package domain

import "errors"

var (
	ErrEmptyQuery         = errors.New("empty query")
	ErrEmptyQuestion      = errors.New("empty question")
	ErrReadOnly           = errors.New("server is read-only: only READ_ONLY statements may run")
	ErrExplainNotReadOnly = errors.New("only READ_ONLY statements can be explained")
	ErrNotFound           = errors.New("not found")
	ErrNoSQLGenerated     = errors.New("model returned no SQL")
)
