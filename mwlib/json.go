package mwlib

import (
	"strings"
)

// Write an array of titles into a piped request string.
func MakeTitleString(titles []string) string {
	return strings.Join(titles, "|")
}
