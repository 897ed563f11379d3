package errors

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

// SQLState codes the stock and order paths care about.
const (
	SQLStateUniqueViolation      = "23505"
	SQLStateCheckViolation       = "23514"
	SQLStateSerializationFailure = "40001"
	SQLStateDeadlockDetected     = "40P01"
)

// SQLError is the driver-neutral view of a Postgres error.
type SQLError struct {
	State      string `json:"state"`
	Constraint string `json:"constraint,omitempty"`
	Table      string `json:"table,omitempty"`
	Column     string `json:"column,omitempty"`
	Detail     string `json:"detail,omitempty"`
	Message    string `json:"message,omitempty"`
}

// Retryable reports whether the statement lost a lock race and can be rerun.
func (e *SQLError) Retryable() bool {
	if e == nil {
		return false
	}
	return e.State == SQLStateSerializationFailure || e.State == SQLStateDeadlockDetected
}

type ErrorDump struct {
	TopMessage string    `json:"top_message"`
	Code       Code      `json:"code,omitempty"`
	Details    any       `json:"details,omitempty"`
	Chain      []string  `json:"chain,omitempty"`
	SQL        *SQLError `json:"sql,omitempty"`
}

// Dump flattens err for logging: the typed code, each wrapped layer, and the
// Postgres diagnostics when either driver produced the error.
func Dump(err error) ErrorDump {
	if err == nil {
		return ErrorDump{}
	}

	d := ErrorDump{TopMessage: err.Error()}
	if te := As(err); te != nil {
		d.Code = te.Code()
		d.Details = te.Details()
	}
	for e := err; e != nil; e = errors.Unwrap(e) {
		d.Chain = append(d.Chain, fmt.Sprintf("%T: %v", e, e))
	}
	d.SQL = SQLErrorOf(err)
	return d
}

// SQLErrorOf extracts Postgres diagnostics from pgx or lib/pq errors.
func SQLErrorOf(err error) *SQLError {
	var pgxErr *pgconn.PgError
	if errors.As(err, &pgxErr) {
		return &SQLError{
			State:      pgxErr.Code,
			Constraint: pgxErr.ConstraintName,
			Table:      pgxErr.TableName,
			Column:     pgxErr.ColumnName,
			Detail:     pgxErr.Detail,
			Message:    pgxErr.Message,
		}
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return &SQLError{
			State:      string(pqErr.Code),
			Constraint: pqErr.Constraint,
			Table:      pqErr.Table,
			Column:     pqErr.Column,
			Detail:     pqErr.Detail,
			Message:    pqErr.Message,
		}
	}
	return nil
}
