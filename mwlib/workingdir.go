package mwlib

import (
	"os"
)

// GetWorkingDir returns the directory where the bots keep their state
// (cookies, dumps, problem logs): $WIKI_BOTTING_DIR or the current
// directory.
func GetWorkingDir() string {
	dir := os.Getenv("WIKI_BOTTING_DIR")
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			panic(err)
		}
		dir = wd
	}
	return dir
}
