package controllers

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/churchhub-backend/api/middleware"
	"github.com/angelmondragon/churchhub-backend/api/validators"
	"github.com/angelmondragon/churchhub-backend/internal/principals"
	"github.com/angelmondragon/churchhub-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/churchhub-backend/pkg/errors"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const maxSearchLength = 100

func requirePrincipal(r *http.Request) (principals.Principal, error) {
	p, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		return principals.Principal{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials")
	}
	return p, nil
}

func requireAdministrator(r *http.Request) (principals.Principal, error) {
	p, err := requirePrincipal(r)
	if err != nil {
		return p, err
	}
	if !p.IsAdministrator() {
		return p, pkgerrors.New(pkgerrors.CodeForbidden, "administrators only")
	}
	return p, nil
}

func uuidParam(r *http.Request, name string) (uuid.UUID, error) {
	raw := chi.URLParam(r, name)
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Validation("invalid id", pkgerrors.FieldError{Field: name, Message: "must be a valid uuid"})
	}
	return id, nil
}

func searchParam(r *http.Request, key string) string {
	return validators.SanitizeString(r.URL.Query().Get(key), maxSearchLength)
}

func branchQuery(r *http.Request, key string) (*enums.Branch, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return nil, nil
	}
	b, err := enums.ParseBranch(raw)
	if err != nil {
		return nil, pkgerrors.Validation("invalid query", pkgerrors.FieldError{Field: key, Message: err.Error()})
	}
	return &b, nil
}

// enumQuery parses an optional enum query parameter with the provided parser.
func enumQuery[T any](r *http.Request, key string, parse func(string) (T, error)) (*T, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return nil, nil
	}
	v, err := parse(raw)
	if err != nil {
		return nil, pkgerrors.Validation("invalid query", pkgerrors.FieldError{Field: key, Message: err.Error()})
	}
	return &v, nil
}

// decodeOptionalBody decodes a JSON body when one was sent.
func decodeOptionalBody(r *http.Request, dest any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return validators.ValidateStruct(dest)
	}
	return validators.DecodeJSONBody(r, dest)
}
