package parser

import "fmt"

// ParseError reports a document whose content is not well-formed
// structured data. It is fatal to that document only.
type ParseError struct {
	DocumentID string
	Msg        string
	Err        error
}

func newParseError(id, msg string, err error) *ParseError {
	return &ParseError{DocumentID: id, Msg: msg, Err: err}
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parse %s: %s: %v", e.DocumentID, e.Msg, e.Err)
	}
	return fmt.Sprintf("parse %s: %s", e.DocumentID, e.Msg)
}

func (e *ParseError) Unwrap() error { return e.Err }
