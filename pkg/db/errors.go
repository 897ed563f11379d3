package db

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	pkgerrors "github.com/angelmondragon/bizops-backend/pkg/errors"
)

// IsUniqueViolation reports whether err is a unique constraint violation. When
// constraintName is set, only violations of that constraint match. SQLite
// errors carry no constraint name, so the message is checked instead.
func IsUniqueViolation(err error, constraintName string) bool {
	if err == nil {
		return false
	}

	if sqlErr := pkgerrors.SQLErrorOf(err); sqlErr != nil {
		if sqlErr.State != pkgerrors.SQLStateUniqueViolation {
			return false
		}
		return constraintName == "" || sqlErr.Constraint == constraintName
	}

	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	msg := err.Error()
	if !strings.Contains(msg, "UNIQUE constraint failed") && !strings.Contains(msg, "duplicate key value") {
		return false
	}
	return constraintName == "" || strings.Contains(msg, constraintName)
}

// IsCheckViolation reports whether err came from a CHECK constraint, such as
// the non-negative quantity guard on products.
func IsCheckViolation(err error) bool {
	if err == nil {
		return false
	}
	if sqlErr := pkgerrors.SQLErrorOf(err); sqlErr != nil {
		return sqlErr.State == pkgerrors.SQLStateCheckViolation
	}
	return strings.Contains(err.Error(), "CHECK constraint failed")
}

// IsNotFound reports whether err is GORM's record-not-found sentinel.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
