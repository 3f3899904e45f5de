package badge

import "errors"

var (
	ErrBadgeNotFound  = errors.New("badge not found")
	ErrNameTaken      = errors.New("badge name already taken")
	ErrAlreadyAwarded = errors.New("badge already awarded to user")
	ErrAwardNotFound  = errors.New("badge award not found")
)
