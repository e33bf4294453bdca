package classify

import (
	"errors"
	"fmt"
)

// ErrExternalService is returned when the classification service fails or
// answers with something that cannot be parsed.
var ErrExternalService = errors.New("classification service failed")

// ExternalServiceError carries the underlying cause of a classification
// failure. errors.Is(err, ErrExternalService) holds for every instance.
type ExternalServiceError struct {
	Op  string
	Err error
}

func (e *ExternalServiceError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrExternalService, e.Op, e.Err)
}

func (e *ExternalServiceError) Unwrap() error { return e.Err }

func (e *ExternalServiceError) Is(target error) bool { return target == ErrExternalService }

func serviceErr(op string, err error) error {
	var ext *ExternalServiceError
	if errors.As(err, &ext) {
		return err
	}
	return &ExternalServiceError{Op: op, Err: err}
}
