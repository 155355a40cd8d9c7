package app

import "errors"

// Error texts double as the client-facing messages.
var (
	ErrFieldsRequired = errors.New("All fields are required")
	ErrUserExists     = errors.New("User already exists")

	// ErrInvalidCredentials covers both an unknown email and a wrong password
	// so responses never reveal whether an account exists.
	ErrInvalidCredentials = errors.New("Invalid credentials")

	ErrSessionSave = errors.New("Session error")

	ErrCatNotFound      = errors.New("Cat not found")
	ErrAlreadyAdopted   = errors.New("You have already adopted this cat")
	ErrAdoptionNotFound = errors.New("Adoption not found")
)
