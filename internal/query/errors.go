package query

import "errors"

// ErrInvalidCategory is returned when the category parameter is not a valid identifier.
var ErrInvalidCategory = errors.New("invalid category id")
