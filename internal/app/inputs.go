package app

import (
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
)

// requireValue trims value and rejects it when blank.
func requireValue(value string, what string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(what + " is required")
	}
	return value, nil
}
