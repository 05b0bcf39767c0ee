package service

import (
	"database/sql"
	"errors"
)

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotFound     = errors.New("not found")
)

// ParamError invalid request parameter; Msg is shown to the client as is.
type ParamError struct {
	Msg string
}

func (e *ParamError) Error() string { return e.Msg }

// BadRequestError request rejected by a business rule.
type BadRequestError struct {
	Msg string
}

func (e *BadRequestError) Error() string { return e.Msg }

func paramError(msg string) error { return &ParamError{Msg: msg} }
func badRequest(msg string) error { return &BadRequestError{Msg: msg} }
func notFoundIfNoRows(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
