package retrieval

import (
	"errors"
	"fmt"
)

var (
	// ErrCollaboratorUnavailable marks failures of the embedder, vector store or counter
	ErrCollaboratorUnavailable = errors.New("retrieval collaborator unavailable")
	// ErrEmptyQuery is returned for blank query text
	ErrEmptyQuery = errors.New("query text is empty")
)

// Stages a retrieval can fail in
const (
	StageEmbed        = "embed"
	StageVectorSearch = "vector_search"
	StageCount        = "count"
)

// RetrievalError is a failed collaborator call. It matches both
// ErrCollaboratorUnavailable and the underlying error with errors.Is.
type RetrievalError struct {
	Stage string
	Err   error
}

func newRetrievalError(stage string, err error) *RetrievalError {
	if err == nil {
		err = errors.New("collaborator not configured")
	}
	return &RetrievalError{Stage: stage, Err: err}
}

func (e *RetrievalError) Error() string {
	return fmt.Sprintf("retrieval failed at %s: %v", e.Stage, e.Err)
}

func (e *RetrievalError) Unwrap() []error {
	return []error{ErrCollaboratorUnavailable, e.Err}
}
