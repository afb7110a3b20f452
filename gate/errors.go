package gate

import "errors"

// ErrUnauthorized is returned by Authorize when access is refused.
var ErrUnauthorized = errors.New("unauthorized")
