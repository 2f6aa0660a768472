package validators

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	pkgerrors "github.com/angelmondragon/churchhub-backend/pkg/errors"
	"github.com/angelmondragon/churchhub-backend/pkg/pagination"
)

type sampleRequest struct {
	Name   string `json:"name" validate:"notblank,max=10"`
	Branch string `json:"branch" validate:"required,oneof=branch1 branch2"`
}

func TestDecodeJSONBodyReportsFieldErrors(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"  ","branch":"branch9"}`))
	var dest sampleRequest
	err := DecodeJSONBody(req, &dest)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	fields, ok := typed.Details().([]pkgerrors.FieldError)
	if !ok || len(fields) != 2 {
		t.Fatalf("expected two field errors, got %#v", typed.Details())
	}
	got := map[string]string{}
	for _, f := range fields {
		got[f.Field] = f.Message
	}
	if got["name"] != "is required" {
		t.Fatalf("unexpected name message %q", got["name"])
	}
	if got["branch"] != "must be one of: branch1, branch2" {
		t.Fatalf("unexpected branch message %q", got["branch"])
	}
}

func TestDecodeJSONBodyRejectsUnknownFields(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"a","branch":"branch1","role":"admin"}`))
	var dest sampleRequest
	if err := DecodeJSONBody(req, &dest); pkgerrors.CodeOf(err) != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for unknown field, got %v", err)
	}
}

func TestDecodeJSONBodyDescribesBodyProblems(t *testing.T) {
	cases := map[string]struct {
		body  string
		field string
		msg   string
	}{
		"empty":    {body: ``, field: "body", msg: "request body is required"},
		"trailing": {body: `{"name":"a","branch":"branch1"}{"x":1}`, field: "body", msg: "body must contain a single JSON object"},
		"type":     {body: `{"name":5,"branch":"branch1"}`, field: "name", msg: "must be a string"},
		"unknown":  {body: `{"name":"a","branch":"branch1","role":"admin"}`, field: "role", msg: "is not a recognised field"},
		"too big":  {body: `{"name":"` + strings.Repeat("a", MaxJSONBodyBytes) + `"}`, field: "body", msg: "must be at most 1048576 bytes"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tc.body))
			var dest sampleRequest
			typed := pkgerrors.As(DecodeJSONBody(req, &dest))
			if typed == nil || typed.Code() != pkgerrors.CodeValidation {
				t.Fatalf("expected validation error, got %v", typed)
			}
			fields, _ := typed.Details().([]pkgerrors.FieldError)
			if len(fields) != 1 || fields[0].Field != tc.field || fields[0].Message != tc.msg {
				t.Fatalf("unexpected details %#v", fields)
			}
		})
	}
}

func TestParsePagination(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?page=2&limit=5", nil)
	params, err := ParsePagination(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if params.Page != 2 || params.Limit != 5 {
		t.Fatalf("unexpected params %+v", params)
	}

	req = httptest.NewRequest(http.MethodGet, "/?limit=1000", nil)
	if _, err := ParsePagination(req); err == nil {
		t.Fatalf("expected out of range limit to fail")
	}
}

func TestQueryDefaultsAndBooleans(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?upcoming=%20true%20&page=abc", nil)
	upcoming, err := ParseQueryBool(req, "upcoming")
	if err != nil || upcoming == nil || !*upcoming {
		t.Fatalf("expected upcoming=true, got %v (%v)", upcoming, err)
	}
	if missing, err := ParseQueryBool(req, "active"); err != nil || missing != nil {
		t.Fatalf("absent bool should be nil, got %v (%v)", missing, err)
	}
	if _, err := ParsePagination(req); pkgerrors.CodeOf(err) != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for page=abc, got %v", err)
	}

	params, err := ParsePagination(httptest.NewRequest(http.MethodGet, "/", nil))
	if err != nil || params.Page != 1 || params.Limit != pagination.DefaultLimit {
		t.Fatalf("unexpected defaults %+v (%v)", params, err)
	}
}

func TestBearerToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if _, err := BearerToken(req); pkgerrors.CodeOf(err) != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized for missing header, got %v", err)
	}
	for _, header := range []string{"Bearer abc.def", "bearer   abc.def ", "abc.def"} {
		req.Header.Set("Authorization", header)
		token, err := BearerToken(req)
		if err != nil || token != "abc.def" {
			t.Fatalf("%q: unexpected token %q err=%v", header, token, err)
		}
	}
	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	if _, err := BearerToken(req); pkgerrors.CodeOf(err) != pkgerrors.CodeUnauthorized {
		t.Fatalf("basic auth must be refused, got %v", err)
	}
}

func TestSanitizeString(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"  hello world ", 5, "hello"},
		{"oración", 4, "orac"},
		{"oración", 6, "oraci"},
		{"line\x00one\nline two", 0, "lineone\nline two"},
		{"   ", 10, ""},
	}
	for _, tt := range tests {
		if got := SanitizeString(tt.in, tt.max); got != tt.want {
			t.Fatalf("SanitizeString(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
		}
	}
}
