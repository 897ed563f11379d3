package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

func TestMetadataForKnownCodes(t *testing.T) {
	tests := []struct {
		code      Code
		status    int
		publicMsg string
		retryable bool
		detailsOK bool
	}{
		{code: CodeValidation, status: http.StatusBadRequest, publicMsg: "validation failed", detailsOK: true},
		{code: CodeUnauthorized, status: http.StatusUnauthorized, publicMsg: "authentication required"},
		{code: CodeForbidden, status: http.StatusForbidden, publicMsg: "access denied"},
		{code: CodeNotFound, status: http.StatusNotFound, publicMsg: "resource not found"},
		{code: CodeConflict, status: http.StatusConflict, publicMsg: "conflict detected"},
		{code: CodeStateConflict, status: http.StatusUnprocessableEntity, publicMsg: "state transition disallowed", detailsOK: true},
		{code: CodeInsufficientStock, status: http.StatusUnprocessableEntity, publicMsg: "insufficient stock", detailsOK: true},
		{code: CodeInvalidAdjustment, status: http.StatusUnprocessableEntity, publicMsg: "invalid stock adjustment"},
		{code: CodeRateLimit, status: http.StatusTooManyRequests, publicMsg: "rate limit exceeded"},
		{code: CodeInternal, status: http.StatusInternalServerError, publicMsg: "internal server error", retryable: true},
		{code: CodeDependency, status: http.StatusServiceUnavailable, publicMsg: "dependency unavailable", retryable: true, detailsOK: true},
	}

	for _, tt := range tests {
		meta := MetadataFor(tt.code)
		if meta.HTTPStatus != tt.status {
			t.Fatalf("code %s expected status %d got %d", tt.code, tt.status, meta.HTTPStatus)
		}
		if meta.PublicMessage != tt.publicMsg {
			t.Fatalf("code %s expected public message %q got %q", tt.code, tt.publicMsg, meta.PublicMessage)
		}
		if meta.Retryable != tt.retryable {
			t.Fatalf("code %s expected retryable %v got %v", tt.code, tt.retryable, meta.Retryable)
		}
		if meta.DetailsAllowed != tt.detailsOK {
			t.Fatalf("code %s expected details allowed %v got %v", tt.code, tt.detailsOK, meta.DetailsAllowed)
		}
	}
}

func TestMetadataForUnknownCodeDefaultsToInternal(t *testing.T) {
	meta := MetadataFor("SOMETHING_UNKNOWN")
	if meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("expected internal status, got %d", meta.HTTPStatus)
	}
}

func TestErrorConstructors(t *testing.T) {
	base := New(CodeValidation, "missing foo")
	if base.Code() != CodeValidation {
		t.Fatalf("expected validation code, got %s", base.Code())
	}
	if base.Message() != "missing foo" {
		t.Fatalf("unexpected message %q", base.Message())
	}
	if base.Details() != nil {
		t.Fatalf("details should be nil by default")
	}

	detail := map[string]any{"field": "foo"}
	base.WithDetails(detail)
	if base.Details() == nil {
		t.Fatalf("details should be preserved")
	}

	cause := stdErrors.New("boom")
	wrapped := Wrap(CodeConflict, cause, "ctx")
	if !stdErrors.Is(wrapped, cause) {
		t.Fatalf("Wrap did not preserve cause")
	}
	if wrapped.Code() != CodeConflict {
		t.Fatalf("unexpected code %s", wrapped.Code())
	}
}

func TestAsReturnsTypedError(t *testing.T) {
	err := New(CodeForbidden, "no entry")
	if got := As(err); got == nil || got.Code() != CodeForbidden {
		t.Fatalf("As failed to return typed error")
	}
	if As(nil) != nil {
		t.Fatalf("As(nil) should return nil")
	}
}

func TestCodeOfAndIs(t *testing.T) {
	inner := New(CodeInsufficientStock, "not enough widgets")
	wrapped := fmt.Errorf("create order: %w", inner)

	if got := CodeOf(wrapped); got != CodeInsufficientStock {
		t.Fatalf("expected insufficient stock code, got %s", got)
	}
	if !Is(wrapped, CodeInsufficientStock) {
		t.Fatalf("expected Is to match through wrapping")
	}
	if Is(wrapped, CodeNotFound) {
		t.Fatalf("unexpected match for not found")
	}
	if got := CodeOf(stdErrors.New("plain")); got != CodeInternal {
		t.Fatalf("expected untyped errors to map to internal, got %s", got)
	}
}

func TestDumpCapturesCodeAndDetails(t *testing.T) {
	err := Wrap(CodeInsufficientStock, stdErrors.New("guard rejected"), "insufficient stock").
		WithDetails(map[string]any{"available": 5})

	d := Dump(err)
	if d.Code != CodeInsufficientStock {
		t.Fatalf("expected code in dump, got %s", d.Code)
	}
	if d.Details == nil {
		t.Fatalf("expected details in dump")
	}
	if len(d.Chain) != 2 {
		t.Fatalf("expected two links in chain, got %d", len(d.Chain))
	}
}

func TestDumpReadsDriverErrors(t *testing.T) {
	pgx := fmt.Errorf("update: %w", &pgconn.PgError{Code: SQLStateSerializationFailure, TableName: "products"})
	d := Dump(Wrap(CodeDependency, pgx, "adjust stock"))
	if d.SQL == nil || d.SQL.Table != "products" {
		t.Fatalf("expected pgx diagnostics, got %+v", d.SQL)
	}
	if !d.SQL.Retryable() {
		t.Fatalf("serialization failures should be retryable")
	}

	pqErr := &pq.Error{Code: SQLStateUniqueViolation, Constraint: "products_sku_key"}
	d = Dump(pqErr)
	if d.SQL == nil || d.SQL.Constraint != "products_sku_key" || d.SQL.Retryable() {
		t.Fatalf("unexpected pq diagnostics %+v", d.SQL)
	}

	if Dump(stdErrors.New("plain")).SQL != nil {
		t.Fatalf("plain errors carry no sql diagnostics")
	}
}
