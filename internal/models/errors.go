package models

import "github.com/pkg/errors"

// ErrNotFound is returned by stores when a document does not exist.
var ErrNotFound = errors.New("not found")
