package normalize

import "errors"

var (
	// ErrUnknownSource is returned for source tags without a normalization rule.
	ErrUnknownSource = errors.New("unknown effort source")
	// ErrMalformedPayload is returned when a required field is missing or has the wrong shape.
	ErrMalformedPayload = errors.New("malformed payload")
)
