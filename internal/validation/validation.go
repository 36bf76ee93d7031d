package validation

import "fmt"

// IncorrectParameterError names the request field that failed validation.
type IncorrectParameterError struct {
	Param string
}

func (e *IncorrectParameterError) Error() string {
	return fmt.Sprintf("incorrect parameter %q", e.Param)
}

// PositiveID rejects non-positive identifiers, naming the offending field.
func PositiveID(field string, id int64) error {
	if id <= 0 {
		return &IncorrectParameterError{Param: field}
	}
	return nil
}

// Pagination validates the from/size pair: from must be non-negative and
// size strictly positive.
func Pagination(from, size int) error {
	if from < 0 {
		return &IncorrectParameterError{Param: "from"}
	}
	if size <= 0 {
		return &IncorrectParameterError{Param: "size"}
	}
	return nil
}

// PageOffset converts from/size into a row offset. The page index is the
// integer division from/size, so from=5,size=10 lands on page 0.
func PageOffset(from, size int) int {
	return (from / size) * size
}
