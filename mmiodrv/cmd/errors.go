package cmd

import (
	"errors"
	"fmt"
)

var errValidationFailed = errors.New("validation failed")

type invalidFlagError struct {
	flag  string
	value string
}

func (e *invalidFlagError) Error() string {
	return fmt.Sprintf("invalid value %q for --%s", e.value, e.flag)
}
