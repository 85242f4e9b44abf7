package model

import "errors"

var (
	// Backup related errors
	ErrOperationNotFound  = errors.New("operation not found")
	ErrInvalidOperationID = errors.New("invalid operation id")
	ErrOperationExists    = errors.New("operation id already recorded")

	// File/Directory related errors
	ErrSourceNotFound = errors.New("source path not found")
	ErrNotDirectory   = errors.New("path is not a directory")
	ErrNotFile        = errors.New("path is not a regular file")
	ErrPathNotAllowed = errors.New("path outside allowed roots")
	ErrPathConflict   = errors.New("path conflict")

	// Watch related errors
	ErrWatchNotRunning = errors.New("no directory is being watched")

	// Permission/Access related errors
	ErrUnauthorized = errors.New("unauthorized")
	ErrTokenExpired = errors.New("token expired")

	// Generic errors
	ErrInvalidInput = errors.New("invalid input")
)
