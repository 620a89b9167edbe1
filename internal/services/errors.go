// Package services defines the business logic of the community bot store:
// modmail, suggestions, role configuration, moderation records, course group
// exchanges and reminders. This file centralizes the service-level error
// values so that they can be consistently returned by service methods and
// checked by callers.
//
// Translation into user-facing messages or HTTP status codes is performed at
// the handler layer.
package services

import (
	"emperror.dev/errors"

	"github.com/tbourn/go-community-store/internal/repo"
)

// Validation errors.
var (
	// ErrEmptyID is returned when a required identifier is blank.
	ErrEmptyID = errors.New("identifier is empty")

	// ErrInvalidStatus is returned for a status value outside the known set.
	ErrInvalidStatus = errors.New("invalid status")
)

// Modmail and suggestion errors.
var (
	ErrModmailNotFound    = errors.New("modmail not found")
	ErrModmailExists      = errors.New("modmail already exists")
	ErrSuggestionNotFound = errors.New("suggestion not found")
)

// Role errors.
var (
	ErrEmptyEmoji           = errors.New("emoji is empty")
	ErrReactionRoleExists   = errors.New("reaction role already mapped for this emoji")
	ErrReactionRoleNotFound = errors.New("reaction role not found")
)

// Moderation errors.
var (
	ErrWarningNotFound = errors.New("warning not found")

	// ErrNameAlreadyRecorded is returned when a member already has a name
	// history entry at the same instant.
	ErrNameAlreadyRecorded = errors.New("name already recorded at this time")
)

// Group exchange errors.
var (
	// ErrInvalidGroups is returned when the requested list is empty, contains
	// a non-positive group, or contains the offered group.
	ErrInvalidGroups = errors.New("invalid group selection")

	// ErrDuplicateOffer is returned when the member already has an offer in
	// the course.
	ErrDuplicateOffer = errors.New("offer already exists for this course")

	ErrOfferNotFound = errors.New("offer not found")
)

// Reminder errors.
var (
	ErrJobNotFound       = errors.New("reminder not found")
	ErrEmptyReminder     = errors.New("reminder message is empty")
	ErrReminderTooLong   = errors.New("reminder message too long")
	ErrReminderInPast    = errors.New("reminder time is not in the future")
	ErrAlreadySubscribed = errors.New("already subscribed to this reminder")
	ErrNotSubscribed     = errors.New("not subscribed to this reminder")
)

func isNotFound(err error) bool { return errors.Is(err, repo.ErrNotFound) }

func isDuplicate(err error) bool { return errors.Is(err, repo.ErrDuplicate) }

func isMissingReference(err error) bool { return errors.Is(err, repo.ErrMissingReference) }
