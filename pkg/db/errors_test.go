package db

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

func TestIsUniqueViolation(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		constraint string
		want       bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "pgx", err: fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505", ConstraintName: "members_email_key"}), want: true},
		{name: "pgx constraint match", err: &pgconn.PgError{Code: "23505", ConstraintName: "members_email_key"}, constraint: "members_email_key", want: true},
		{name: "pgx constraint mismatch", err: &pgconn.PgError{Code: "23505", ConstraintName: "members_email_key"}, constraint: "other", want: false},
		{name: "pgx other code", err: &pgconn.PgError{Code: "23503"}, want: false},
		{name: "lib/pq", err: &pq.Error{Code: "23505", Constraint: "administrators_email_key"}, want: true},
		{name: "gorm translated", err: gorm.ErrDuplicatedKey, want: true},
		{name: "sqlite", err: errors.New("UNIQUE constraint failed: event_attendees.event_id, event_attendees.member_id"), want: true},
		{name: "sqlite constraint", err: errors.New("UNIQUE constraint failed: members.email"), constraint: "members.email", want: true},
		{name: "other", err: errors.New("connection refused"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsUniqueViolation(tt.err, tt.constraint); got != tt.want {
				t.Fatalf("IsUniqueViolation() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsNotFound(t *testing.T) {
	if !IsNotFound(fmt.Errorf("lookup: %w", gorm.ErrRecordNotFound)) {
		t.Fatalf("expected wrapped not found to match")
	}
	if IsNotFound(errors.New("boom")) {
		t.Fatalf("unexpected not found match")
	}
}
