package domain

import "errors"

// ErrDocumentNotFound is returned when an id cannot be found in a store.
var ErrDocumentNotFound = errors.New("document not found")

// ErrUnknownOperator is returned when a filter or update names an operator the
// path type does not support.
var ErrUnknownOperator = errors.New("unknown operator")

// ErrMethodNotFound is returned when a method or static is not registered.
var ErrMethodNotFound = errors.New("method not found")

// ErrInvalidID is returned when a store receives an empty or malformed id.
var ErrInvalidID = errors.New("invalid document id")

// ErrInvalidQuery is returned when a filter or update document is malformed.
var ErrInvalidQuery = errors.New("invalid query")
