package trace

import (
	"fmt"
	"strings"
)

// Level controls which scopes are traced.
type Level uint8

const (
	LevelOff Level = iota
	// LevelError keeps only what a crash dump needs: the ring, no stream.
	LevelError
	LevelPhase
	LevelDetail
	LevelDebug
)

var levelNames = [...]string{
	LevelOff:    "off",
	LevelError:  "error",
	LevelPhase:  "phase",
	LevelDetail: "detail",
	LevelDebug:  "debug",
}

func (l Level) String() string {
	if int(l) < len(levelNames) {
		return levelNames[l]
	}
	return "unknown"
}

// ParseLevel parses a level name, ignoring case.
func ParseLevel(s string) (Level, error) {
	for l, name := range levelNames {
		if strings.EqualFold(s, name) {
			return Level(l), nil
		}
	}
	return LevelOff, fmt.Errorf("invalid trace level: %q (expected: off|error|phase|detail|debug)", s)
}

// ShouldEmit reports whether events of scope are kept at this level.
func (l Level) ShouldEmit(scope Scope) bool {
	switch l {
	case LevelPhase:
		return scope <= ScopeFile
	case LevelDetail:
		return scope <= ScopePass
	case LevelDebug:
		return true
	}
	return false
}
