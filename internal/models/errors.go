package models

// ValidationError reports user input that fails a precondition. The message
// is meant to be shown to the user as-is.
type ValidationError struct {
	Field   string `json:"field,omitempty"`
	Message string `json:"error"`
}

func (e *ValidationError) Error() string {
	return e.Message
}
