package domain

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrPolicyNotFound     = errors.New("no matching sla policy")
	ErrInvalidPolicy      = errors.New("invalid sla policy")
	ErrInvalidRule        = errors.New("invalid escalation rule")
	ErrInvalidCalendar    = errors.New("invalid business calendar")
	ErrInvalidAction      = errors.New("invalid escalation action")
	ErrDuplicateViolation = errors.New("open violation already exists")
	ErrActionTerminal     = errors.New("escalation action is terminal")
)
