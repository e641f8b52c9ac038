package cartoon

import (
	"errors"
	"fmt"
)

// ErrEmptyImage is returned when the source image is nil or has no pixels.
var ErrEmptyImage = errors.New("cartoon: image is empty")

// InvalidParameterError reports a parameter outside its declared range.
type InvalidParameterError struct {
	Name  string
	Value int
	Min   int
	Max   int
}

func (e *InvalidParameterError) Error() string {
	return fmt.Sprintf("invalid %s: %d (must be between %d and %d)", e.Name, e.Value, e.Min, e.Max)
}
