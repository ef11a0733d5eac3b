package accesscontrol

import "errors"

var (
	ErrInvalidMode      = errors.New("invalid access control mode")
	ErrInvalidIPAddress = errors.New("invalid IP address")
	ErrNoVisitor        = errors.New("visitor IP or country is required")
)
