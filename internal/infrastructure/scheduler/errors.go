package scheduler

import "errors"

// ErrInvalidConfig is returned when the trigger schedule is out of range
var ErrInvalidConfig = errors.New("invalid scheduler configuration")
