package types

import "errors"

var (
	ErrApplicationNotFound  = errors.New("application not found")
	ErrDuplicateApplication = errors.New("duplicate application for today")
)
