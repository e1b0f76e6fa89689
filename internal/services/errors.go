package services

import "errors"

// Kind classifies service failures so callers can map them to a response
// without matching individual errors.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindConflict
	KindUnauthorized
	KindForbidden
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	default:
		return "internal"
	}
}

type Error struct {
	Kind    Kind
	Code    string
	Message string
}

func (e *Error) Error() string { return e.Message }

func newError(kind Kind, code, msg string) *Error {
	return &Error{Kind: kind, Code: code, Message: msg}
}

var (
	ErrSelfFollow       = newError(KindValidation, "invalid_operation", "you cannot follow yourself")
	ErrAlreadyFollowing = newError(KindConflict, "already_following", "you already follow this user")
	ErrAlreadyRequested = newError(KindConflict, "already_requested", "follow request already sent")
	ErrNotFollowing     = newError(KindNotFound, "not_following", "you are not following this user")
	ErrRequestNotFound  = newError(KindNotFound, "request_not_found", "follow request not found")
	ErrUserNotFound     = newError(KindNotFound, "user_not_found", "user not found")
	ErrLockTimeout      = newError(KindConflict, "busy", "another change to this relation is in progress, try again")

	ErrEmptyMessage   = newError(KindValidation, "empty_message", "message text is required")
	ErrMessageTooLong = newError(KindValidation, "message_too_long", "message text is too long")
	ErrSelfMessage    = newError(KindValidation, "invalid_operation", "you cannot message yourself")

	ErrInvalidName     = newError(KindValidation, "invalid_name", "name is required")
	ErrInvalidUsername = newError(KindValidation, "invalid_username", "username must be at least 3 characters of a-z, 0-9, _ or .")
	ErrInvalidEmail    = newError(KindValidation, "invalid_email", "a valid email is required")
	ErrWeakPassword    = newError(KindValidation, "weak_password", "password must be at least 6 characters")
	ErrBioTooLong      = newError(KindValidation, "bio_too_long", "bio must be at most 500 characters")
	ErrUsernameTaken   = newError(KindConflict, "username_taken", "username is already taken")
	ErrEmailTaken      = newError(KindConflict, "email_taken", "email is already registered")
	ErrBadCredentials  = newError(KindUnauthorized, "invalid_credentials", "invalid credentials")

	ErrProjectNotFound    = newError(KindNotFound, "project_not_found", "project not found")
	ErrNotProjectOwner    = newError(KindForbidden, "not_owner", "only the owner can delete this project")
	ErrInvalidTitle       = newError(KindValidation, "invalid_title", "title is required and must be at most 120 characters")
	ErrDescriptionTooLong = newError(KindValidation, "description_too_long", "description must be at most 2000 characters")
	ErrInvalidURL         = newError(KindValidation, "invalid_url", "links must be absolute http or https URLs")
	ErrEmptyComment       = newError(KindValidation, "empty_comment", "comment text is required")
	ErrCommentTooLong     = newError(KindValidation, "comment_too_long", "comment must be at most 1000 characters")
)

// KindOf returns the Kind of err, or KindInternal for errors that did not
// originate here.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}
