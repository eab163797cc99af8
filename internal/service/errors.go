package service

import "fmt"

// ValidationError reports a structurally invalid query. It is returned before
// any repository is called and is never worth retrying.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// QueryError reports a failed store query. Op names the facade operation.
type QueryError struct {
	Op  string
	Err error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("service: %s: %v", e.Op, e.Err)
}

func (e *QueryError) Unwrap() error { return e.Err }
