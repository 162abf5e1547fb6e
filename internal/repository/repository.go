// Package repository implements data access over database/sql with the pgx
// stdlib driver. Each entity gets an interface plus a Postgres
// implementation; callers depend on the interfaces so services can be tested
// against in-memory fakes.
package repository

import "strings"

// isUniqueViolation reports whether err is a Postgres unique constraint
// violation on the named constraint (SQLSTATE 23505).
func isUniqueViolation(err error, constraint string) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "23505") && strings.Contains(msg, constraint)
}
