package services

import "errors"

// ErrIncompleteFile is returned when a file is downloaded before all of
// its chunks have been stored.
var ErrIncompleteFile = errors.New("file upload incomplete")
