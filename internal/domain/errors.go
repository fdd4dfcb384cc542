package domain

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrValidation      = errors.New("validation failed")
	ErrDuplicateReview = errors.New("profile already reviewed this address")
	ErrNotOwner        = errors.New("review belongs to another profile")
	ErrProfileType     = errors.New("only personal profiles may write reviews")
	ErrAddressLevel    = errors.New("reviews attach to BUILDING or UNIT addresses only")
)
