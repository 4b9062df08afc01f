package bus

import "errors"

var (
	ErrNilHandler    = errors.New("event handler is nil")
	ErrTopicNotFound = errors.New("topic not found")
)
