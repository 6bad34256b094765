package database

import "errors"

var (
	// ErrInvalidDatabaseURL is returned when the connection string does not parse.
	ErrInvalidDatabaseURL = errors.New("invalid database URL")
	// ErrConnectionFailed is returned when no connection could be opened or
	// checked out of the pool.
	ErrConnectionFailed = errors.New("database connection failed")
)
