package errors

import "github.com/pkg/errors"

var (
	// common errors
	ErrConnectionTimeout = errors.New("connection timeout")
	ErrTransientIO       = errors.New("transient io failure")

	// analyzer errors
	ErrAnalyzerUnavailable     = errors.New("analyzer unavailable")
	ErrAnalyzerInvalidResponse = errors.New("analyzer returned an invalid response")

	// dedup errors
	ErrDuplicateCacheUnavailable = errors.New("duplicate cache unavailable")

	// complaint errors
	ErrComplaintNotFound       = errors.New("complaint not found")
	ErrComplaintNotFailed      = errors.New("complaint is not in failed state")
	ErrAttachmentNotFound      = errors.New("attachment not found")
	ErrUnsupportedMailboxState = errors.New("mailbox is not connected")
)
