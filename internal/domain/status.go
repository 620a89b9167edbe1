package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// ModmailStatus is the lifecycle state of a modmail thread.
type ModmailStatus int

const (
	ModmailOpen       ModmailStatus = 1
	ModmailInProgress ModmailStatus = 2
	ModmailClosed     ModmailStatus = 3
)

var modmailStatusNames = map[ModmailStatus]string{
	ModmailOpen:       "open",
	ModmailInProgress: "in_progress",
	ModmailClosed:     "closed",
}

// Valid reports whether s is a known modmail status.
func (s ModmailStatus) Valid() bool {
	_, ok := modmailStatusNames[s]
	return ok
}

func (s ModmailStatus) String() string {
	if n, ok := modmailStatusNames[s]; ok {
		return n
	}
	return "ModmailStatus(" + strconv.Itoa(int(s)) + ")"
}

// ParseModmailStatus accepts either the status name or its numeric id.
func ParseModmailStatus(v string) (ModmailStatus, error) {
	v = strings.ToLower(strings.TrimSpace(v))
	for s, n := range modmailStatusNames {
		if n == v {
			return s, nil
		}
	}
	if i, err := strconv.Atoi(v); err == nil && ModmailStatus(i).Valid() {
		return ModmailStatus(i), nil
	}
	return 0, fmt.Errorf("unknown modmail status %q", v)
}

// SuggestionStatus is the review state of a suggestion.
type SuggestionStatus int

const (
	SuggestionUndecided   SuggestionStatus = 0
	SuggestionApproved    SuggestionStatus = 1
	SuggestionDenied      SuggestionStatus = 2
	SuggestionConsidered  SuggestionStatus = 3
	SuggestionImplemented SuggestionStatus = 4
)

var suggestionStatusNames = map[SuggestionStatus]string{
	SuggestionUndecided:   "undecided",
	SuggestionApproved:    "approved",
	SuggestionDenied:      "denied",
	SuggestionConsidered:  "considered",
	SuggestionImplemented: "implemented",
}

// Valid reports whether s is a known suggestion status.
func (s SuggestionStatus) Valid() bool {
	_, ok := suggestionStatusNames[s]
	return ok
}

func (s SuggestionStatus) String() string {
	if n, ok := suggestionStatusNames[s]; ok {
		return n
	}
	return "SuggestionStatus(" + strconv.Itoa(int(s)) + ")"
}

// ParseSuggestionStatus accepts either the status name or its numeric id.
func ParseSuggestionStatus(v string) (SuggestionStatus, error) {
	v = strings.ToLower(strings.TrimSpace(v))
	for s, n := range suggestionStatusNames {
		if n == v {
			return s, nil
		}
	}
	if i, err := strconv.Atoi(v); err == nil && SuggestionStatus(i).Valid() {
		return SuggestionStatus(i), nil
	}
	return 0, fmt.Errorf("unknown suggestion status %q", v)
}
