// Package repository implements data access over MySQL. Sentinel errors
// defined here let handlers map failures onto HTTP codes without
// inspecting driver errors.
package repository

import (
	"errors"
	"strings"
)

// ErrEmailExists is returned when a registration hits the unique email
// constraint. Handlers translate it into a structured 400 response.
var ErrEmailExists = errors.New("email already exists")

// ErrDuplicate signals a generic unique-constraint violation, e.g. a
// user applying to the same offer twice or requesting a second
// verification record.
var ErrDuplicate = errors.New("duplicate record")

// isDuplicateKey reports whether err is a MySQL duplicate-entry error
// (code 1062).
func isDuplicateKey(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "1062")
}
