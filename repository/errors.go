package repository

import "errors"

var (
	// ErrNotFound the document does not exist
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists a unique key is already taken
	ErrAlreadyExists = errors.New("already exists")
	// ErrStatusMismatch the document exists but its status is not the expected one
	ErrStatusMismatch = errors.New("status mismatch")
)
