package service

import "errors"

// Validation errors leave prior state untouched.
var (
	ErrIdentityRequired   = errors.New("student id is required")
	ErrUnknownField       = errors.New("unknown identity field")
	ErrNoFilesChosen      = errors.New("no files chosen")
	ErrFileTypeNotAllowed = errors.New("file type not allowed")
	ErrNothingStaged      = errors.New("no files staged for submission")
	ErrInquiryIncomplete  = errors.New("student id, subject and message are required")
)

var (
	ErrUploadInProgress = errors.New("upload already in progress")
	ErrDeliveryFailed   = errors.New("inquiry delivery failed")
)
