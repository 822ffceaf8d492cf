package apperrors

import "errors"

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")

	// ErrVersionConflict is returned when the active article version changed
	// between read and deactivation. The caller must re-read and retry.
	ErrVersionConflict = errors.New("active version changed concurrently")

	// ErrHierarchyViolation is returned when the legal-precedence rules
	// forbid the requested effect (severity "error").
	ErrHierarchyViolation = errors.New("legal hierarchy violation")

	// ErrNotConcerned is returned when a conformity evaluation targets a
	// (site, article) status classified as non_concerne.
	ErrNotConcerned = errors.New("article not concerned for this site")

	ErrEmptyContent = errors.New("new content is required for this effect")
	ErrInvalidInput = errors.New("invalid input")
)
