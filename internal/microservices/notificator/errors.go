package notificator

import "errors"

var (
	errMissingType      = errors.New("message has no type")
	errDeliveriesClosed = errors.New("delivery channel closed")
)
