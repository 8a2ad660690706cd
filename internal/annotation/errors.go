package annotation

import "errors"

// ErrInvalidRange is the reason an add, modify or reconnect drops an
// annotation. It is only ever logged, never returned.
var ErrInvalidRange = errors.New("annotation position out of range")
