package repository

import "errors"

var (
	// ErrStoreUnavailable is returned by stores that have no backing connection.
	ErrStoreUnavailable = errors.New("storage unavailable")
	// ErrSourceNotFound is returned when a source lookup matches nothing.
	ErrSourceNotFound = errors.New("source not found")
	// ErrSourceExists is returned when a source with the same URL is already stored.
	ErrSourceExists = errors.New("source with this url already exists")
)
