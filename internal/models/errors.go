package models

import (
	"errors"
	"strings"

	"github.com/mattn/go-sqlite3"
)

var (
	ErrDuplicateEmail  = errors.New("email already exists")
	ErrDuplicateTitle  = errors.New("post title already exists")
	ErrAdminExists     = errors.New("an admin already exists")
	ErrUnknownEmail    = errors.New("no account with that email")
	ErrInvalidPassword = errors.New("incorrect password")
	ErrNotFound        = errors.New("not found")
	ErrForbidden       = errors.New("forbidden")
	ErrValidation      = errors.New("validation failed")
)

// translate maps SQLite constraint violations onto the error taxonomy and
// returns any other error unchanged.
func translate(err error) error {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return err
	}
	switch sqliteErr.ExtendedCode {
	case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
		msg := sqliteErr.Error()
		switch {
		case strings.Contains(msg, "users.email"):
			return ErrDuplicateEmail
		case strings.Contains(msg, "posts.title"):
			return ErrDuplicateTitle
		case strings.Contains(msg, "users.role"):
			return ErrAdminExists
		}
	case sqlite3.ErrConstraintForeignKey:
		return ErrNotFound
	}
	return err
}
