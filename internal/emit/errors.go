package emit

import (
	"errors"
	"fmt"
)

// ErrNotAssignable is returned when a produced value does not fit its target.
var ErrNotAssignable = errors.New("value not assignable")

// MappingError reports a failure at one target path of a call.
type MappingError struct {
	Path string
	Err  error
}

func (e *MappingError) Error() string {
	if e.Path == "" {
		return "mapping: " + e.Err.Error()
	}

	return fmt.Sprintf("mapping %s: %v", e.Path, e.Err)
}

func (e *MappingError) Unwrap() error {
	return e.Err
}

// wrap attaches path to err unless a deeper path is already attached.
func wrap(path string, err error) error {
	if err == nil {
		return nil
	}

	var me *MappingError
	if errors.As(err, &me) {
		return err
	}

	return &MappingError{Path: path, Err: err}
}
