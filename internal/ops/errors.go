package ops

import "errors"

// ErrReverseNotComputed indicates Reverse was read before GenerateReverse ran
// for the operation.
var ErrReverseNotComputed = errors.New("reverse operation not computed")

// ErrIrreversible indicates an ExecuteSQL operation with no statement was asked
// to run against a live connection, typically while downgrading.
var ErrIrreversible = errors.New("operation is irreversible")

// ErrUnknownKind indicates a persisted record carries an unrecognised op tag.
var ErrUnknownKind = errors.New("unknown operation kind")

// ErrInvalidOperation indicates an operation whose fields contradict each other.
var ErrInvalidOperation = errors.New("invalid operation")
