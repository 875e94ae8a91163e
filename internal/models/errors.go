package models

import "errors"

// ErrSourceUnreadable is returned when a document is missing, corrupt, or in the
// wrong format. It is the only fatal outcome of a parse.
var ErrSourceUnreadable = errors.New("source unreadable")

// ErrColumnNotFound is returned when a table operation names an unknown column.
var ErrColumnNotFound = errors.New("column not found")
