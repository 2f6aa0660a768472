package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestMetadataStatuses(t *testing.T) {
	want := map[Code]int{
		CodeValidation:   http.StatusBadRequest,
		CodeUnauthorized: http.StatusUnauthorized,
		CodeNotApproved:  http.StatusForbidden,
		CodeForbidden:    http.StatusForbidden,
		CodeNotFound:     http.StatusNotFound,
		CodeConflict:     http.StatusConflict,
		CodeIdempotency:  http.StatusConflict,
		CodeRateLimit:    http.StatusTooManyRequests,
		CodeInternal:     http.StatusInternalServerError,
		CodeDependency:   http.StatusServiceUnavailable,
	}
	for code, status := range want {
		if got := MetadataFor(code).HTTPStatus; got != status {
			t.Errorf("%s: status %d, want %d", code, got, status)
		}
	}
	if MetadataFor("SOMETHING_UNKNOWN").HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("unknown codes should map to internal")
	}
	if !MetadataFor(CodeDependency).Retryable || MetadataFor(CodeConflict).Retryable {
		t.Fatalf("only server-side failures are retryable")
	}
}

func TestPublicMessageHidesInternalText(t *testing.T) {
	if got := New(CodeNotFound, "sermon not found").PublicMessage(); got != "sermon not found" {
		t.Fatalf("client errors expose their message, got %q", got)
	}
	if got := New(CodeNotFound, "").PublicMessage(); got != "resource not found" {
		t.Fatalf("empty message falls back, got %q", got)
	}
	leaky := Wrap(CodeInternal, stdErrors.New("dial tcp 10.0.0.3:5432"), "insert sermon")
	if got := leaky.PublicMessage(); got != "internal server error" {
		t.Fatalf("internal text leaked: %q", got)
	}
	if got := Wrap(CodeDependency, nil, "gcs down").PublicMessage(); got != "dependency unavailable" {
		t.Fatalf("dependency text leaked: %q", got)
	}
}

func TestWrapKeepsCause(t *testing.T) {
	cause := stdErrors.New("boom")
	wrapped := Wrap(CodeConflict, cause, "ctx")
	if !stdErrors.Is(wrapped, cause) {
		t.Fatalf("Wrap did not preserve cause")
	}
	if wrapped.Error() != "CONFLICT: ctx: boom" {
		t.Fatalf("unexpected error string %q", wrapped.Error())
	}
	outer := fmt.Errorf("service: %w", wrapped)
	if CodeOf(outer) != CodeConflict {
		t.Fatalf("code lost through fmt wrapping")
	}
	if CodeOf(stdErrors.New("plain")) != CodeInternal || CodeOf(nil) != CodeInternal {
		t.Fatalf("untyped errors should report internal")
	}
}

func TestValidationCarriesFieldErrors(t *testing.T) {
	err := Validation("invalid branch", FieldError{Field: "branch", Message: "must be branch1 or branch2"})
	fields, ok := err.Details().([]FieldError)
	if !ok || len(fields) != 1 || fields[0].Field != "branch" {
		t.Fatalf("expected one branch field error, got %#v", err.Details())
	}
	if Validation("no fields").Details() != nil {
		t.Fatalf("details should stay nil without fields")
	}
}

func TestLogFieldsIncludesPostgresDiagnostics(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "members_email_key", TableName: "members"}
	err := Wrap(CodeConflict, fmt.Errorf("insert member: %w", pgErr), "email already registered")

	fields := LogFields(err)
	if fields["error_code"] != CodeConflict {
		t.Fatalf("unexpected code %v", fields["error_code"])
	}
	if fields["pg_code"] != "23505" || fields["pg_constraint"] != "members_email_key" {
		t.Fatalf("missing pg fields: %#v", fields)
	}
	if _, ok := fields["pg_detail"]; ok {
		t.Fatalf("empty pg values should be omitted")
	}
	chain, _ := fields["error_chain"].([]string)
	if len(chain) != 2 {
		t.Fatalf("expected two wrapped errors, got %v", chain)
	}

	plain := LogFields(stdErrors.New("x"))
	if _, ok := plain["error_chain"]; ok {
		t.Fatalf("unwrapped error should not carry a chain")
	}
}
