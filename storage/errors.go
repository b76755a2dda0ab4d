package storage

import "errors"

var (
	ErrArtistNotFound     = errors.New("artist not found in storage")
	ErrPackageNotFound    = errors.New("vote package not found in storage")
	ErrPurchaseNotFound   = errors.New("purchase not found in storage")
	ErrValidationNotFound = errors.New("no active validation code for identifier")
	ErrConfigNotFound     = errors.New("voting config row is missing")
	ErrSlugTaken          = errors.New("artist slug already exists")
	ErrDuplicateEvent     = errors.New("webhook event already recorded")
	ErrTerminalStatus     = errors.New("purchase is already in a terminal status")
)
