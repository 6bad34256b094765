package schema

import "errors"

// ErrNotFound indicates a table, column, constraint or index is missing from the snapshot.
var ErrNotFound = errors.New("schema object not found")

// ErrExists indicates an object with the same name is already part of the snapshot.
var ErrExists = errors.New("schema object already exists")

// ErrInvalid indicates a schema definition that cannot be turned into a snapshot.
var ErrInvalid = errors.New("invalid schema definition")
