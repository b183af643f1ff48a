package db

import (
	"errors"

	"github.com/jackc/pgx/v5"
)

var ErrRecordNotFound = pgx.ErrNoRows

// ErrStoreUnavailable wraps transient persistence failures so callers can
// distinguish them from business rejections.
var ErrStoreUnavailable = errors.New("store unavailable")
