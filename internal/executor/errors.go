package executor

import "errors"

// ErrInvalidRevision indicates a target, initial or recorded revision outside
// the known migration chain. It is always reported before any DDL runs.
var ErrInvalidRevision = errors.New("invalid revision")
