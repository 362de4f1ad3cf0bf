package accounts

import "errors"

var (
	ErrAccountExists = errors.New("account already exists")
	ErrTokenInUse    = errors.New("incoming auth token already bound to another account")
	ErrMissingID     = errors.New("account id required")
)
