package tracker

import "errors"

// ErrTableCreation indicates the revision table could not be created.
var ErrTableCreation = errors.New("creating revision table")
