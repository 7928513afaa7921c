package domain

import "errors"

var (
	// ErrInvalidCredentials covers unknown email and wrong password alike so
	// that login never leaks account existence.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrPartnerNotValidated is returned when a PARTNER authenticates with
	// correct credentials before an administrator has validated the account.
	ErrPartnerNotValidated = errors.New("partner account pending validation")

	ErrForbidden       = errors.New("access forbidden")
	ErrAccountNotFound = errors.New("account not found")
	ErrEmailTaken      = errors.New("email already in use")
	ErrInvalidID       = errors.New("invalid account id")
	ErrMissingZone     = errors.New("zone of responsibility is missing")
	ErrInvalidInput    = errors.New("invalid input")
)
