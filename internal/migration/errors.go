package migration

import "errors"

// ErrBrokenChain indicates migration files whose numbers are not exactly 1..N.
var ErrBrokenChain = errors.New("migration chain is broken")

// ErrEmptyMigration indicates a migration file with no operations.
var ErrEmptyMigration = errors.New("migration has no operations")

// ErrMigrationExists indicates Generate would overwrite an existing file.
var ErrMigrationExists = errors.New("migration file already exists")

// ErrRevisionOutOfRange indicates a revision outside 0..head.
var ErrRevisionOutOfRange = errors.New("revision out of range")

// ErrDiffIncomplete indicates the differ's operations do not reproduce the head schema.
var ErrDiffIncomplete = errors.New("generated operations do not reach the head schema")
