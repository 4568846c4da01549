package apperrors

import "errors"

var (
	ErrNotFound            = errors.New("not found")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrInvalidFileType     = errors.New("invalid file type")
	ErrMalformedCSV        = errors.New("malformed CSV file")
	ErrMissingField        = errors.New("missing required field")
	ErrSchemaIntrospection = errors.New("failed to analyze database schema")
	ErrNoQueryGenerated    = errors.New("no SQL query generated")
	ErrQueryExecution      = errors.New("query execution failed")
)
