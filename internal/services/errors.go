package services

import (
	"errors"
	"fmt"
)

var (
	ErrTokenInvalid         = errors.New("invalid reset token")
	ErrTokenExpired         = errors.New("reset token expired")
	ErrUpstream             = errors.New("upstream failure")
	ErrDuplicateTransaction = errors.New("transaction already exists")
	ErrPaymentNotCompleted  = errors.New("payment is not completed")
	ErrUnknownPackage       = errors.New("unknown points package")
	// ссылку на сброс не удалось выдать или отправить существующему профилю
	ErrResetNotDelivered = errors.New("reset link not delivered")
)

// ValidationError: обязательное поле отсутствует или некорректно.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func upstream(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrUpstream, op, err)
}
