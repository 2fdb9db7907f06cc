package domain

import "errors"

var (
	ErrInvalidCredentials = errors.New("email and password do not match")
	ErrInvalidToken       = errors.New("invalid token")
	ErrUserNotFound       = errors.New("user not found")

	ErrForbidden          = errors.New("forbidden")
	ErrInvalidContent     = errors.New("comment content must be between 2 and 600 characters")
	ErrTooManyAttachments = errors.New("a comment may carry at most 3 attachments")
	ErrInvalidMinutes     = errors.New("minutes must not be negative")
	ErrTicketClosed       = errors.New("ticket is closed")
	ErrInvalidSubject     = errors.New("ticket subject must not be empty")
	ErrInvalidDepartment  = errors.New("department must not be empty")

	ErrTicketNotFound  = errors.New("ticket not found")
	ErrCompanyNotFound = errors.New("company not found")
	ErrInvalidCompany  = errors.New("company name must not be empty")
	ErrInvalidIdentity = errors.New("invalid identity")
)
