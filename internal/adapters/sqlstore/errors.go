package sqlstore

import "errors"

var (
	// ErrNoSnapshot is returned by Load before the first Save.
	ErrNoSnapshot = errors.New("no snapshot stored")
	// ErrMigrate wraps schema migration failures.
	ErrMigrate = errors.New("migrate schema")
)
