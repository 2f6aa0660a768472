package controllers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/angelmondragon/churchhub-backend/api/middleware"
	"github.com/angelmondragon/churchhub-backend/internal/principals"
	"github.com/angelmondragon/churchhub-backend/pkg/db/models"
	"github.com/angelmondragon/churchhub-backend/pkg/enums"
	"github.com/angelmondragon/churchhub-backend/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func addRouteParam(req *http.Request, key, value string) *http.Request {
	routeCtx := chi.RouteContext(req.Context())
	if routeCtx == nil {
		routeCtx = chi.NewRouteContext()
		req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))
	}
	routeCtx.URLParams.Add(key, value)
	return req
}

func asPrincipal(req *http.Request, p principals.Principal) *http.Request {
	return req.WithContext(middleware.WithPrincipal(req.Context(), p))
}

func approvedMember(branch enums.Branch) principals.Principal {
	return principals.FromMember(&models.Member{
		ID:             uuid.New(),
		Email:          "member@example.com",
		Name:           "Member",
		Branch:         branch,
		ApprovalStatus: enums.ApprovalStatusApproved,
		Active:         true,
	})
}

func superAdministrator() principals.Principal {
	return principals.FromAdministrator(&models.Administrator{
		ID:          uuid.New(),
		Email:       "admin@example.com",
		Name:        "Admin",
		AdminLevel:  enums.AdminLevelSuper,
		Permissions: pq.StringArray{string(enums.PermissionManageUsers), string(enums.PermissionManageContent)},
		Active:      true,
	})
}

type envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Code    string          `json:"code"`
	Data    json.RawMessage `json:"data"`
	Errors  []struct {
		Field   string `json:"field"`
		Message string `json:"message"`
	} `json:"errors"`
}

func decodeEnvelope(t *testing.T, resp *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(resp.Body.Bytes(), &env); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	return env
}
