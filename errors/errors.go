package errors

import "fmt"

var (
	// Identity store
	ErrValidation         = fmt.Errorf("blank or malformed input")
	ErrWeakSecret         = fmt.Errorf("secret must be at least 6 characters")
	ErrSecretMismatch     = fmt.Errorf("secrets do not match")
	ErrHandleTaken        = fmt.Errorf("handle already registered")
	ErrInvalidCredentials = fmt.Errorf("invalid handle or secret")
	ErrTokenGeneration    = fmt.Errorf("token generation failed")

	// Message store
	ErrEmptyPayload       = fmt.Errorf("text message has no content")
	ErrUnknownRoom        = fmt.Errorf("room does not exist")
	ErrMessageNotFound    = fmt.Errorf("message not found")
	ErrAttachmentTooLarge = fmt.Errorf("attachment exceeds the size limit")

	// Poll engine
	ErrInvalidQuestion     = fmt.Errorf("poll question is blank")
	ErrInsufficientOptions = fmt.Errorf("poll needs at least 2 options")
	ErrUnknownOption       = fmt.Errorf("option index out of range")
	ErrNotAPoll            = fmt.Errorf("message is not a poll")

	// Runtime
	ErrWorkerPanic = fmt.Errorf("worker panic")
	ErrEmptyWords  = fmt.Errorf("no words have been found")
)
