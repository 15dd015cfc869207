package triage

import "errors"

var (
	// ErrCategoryNameRequired indicates a category was submitted without a name.
	ErrCategoryNameRequired = errors.New("category name is required")

	// ErrCategoryDescriptionRequired indicates a category was submitted without a description.
	ErrCategoryDescriptionRequired = errors.New("category description is required")

	// ErrNotLoggedIn indicates an operation needs a signed-in user.
	ErrNotLoggedIn = errors.New("not logged in")

	// ErrUnknownCategory indicates a category id is not in the local collection.
	ErrUnknownCategory = errors.New("unknown category")

	// ErrCountMismatch indicates a stored email count disagrees with the emails.
	ErrCountMismatch = errors.New("category email count mismatch")
)
