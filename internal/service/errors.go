package service

import "errors"

// ErrNotFound indicates there is no snapshot for the requested base currency.
var ErrNotFound = errors.New("not found")

// ErrStorageWrite indicates a snapshot or history write failed. The
// underlying database error is logged, not returned.
var ErrStorageWrite = errors.New("storage write failed")

// ErrInternal indicates an internal server error.
var ErrInternal = errors.New("internal error")
