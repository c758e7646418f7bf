package model

import "errors"

// ErrNotFound is returned by repositories when the requested row is missing.
var ErrNotFound = errors.New("not found")
