package handlers

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/assetdesk/backend/middleware"
	"github.com/assetdesk/backend/models"
	"github.com/assetdesk/backend/service"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	adminEmail = "boss@corp.io"
	staffEmail = "staff@corp.io"
)

type testEnv struct {
	logger   *logrus.Logger
	router   http.Handler
	tokens   *service.TokenService
	users    *fakeUsers
	assets   *fakeAssets
	custom   *fakeCustom
	requests *fakeRequests
	images   *fakeImages
	mailer   *fakeMailer
	logs     *fakeEmailLogs
	notifier *Notifier
	health   *fakePinger
}

type envOption func(*RouterConfig)

func withoutImages() envOption {
	return func(c *RouterConfig) { c.Images = nil }
}

func newTestEnv(t *testing.T, opts ...envOption) *testEnv {
	t.Helper()
	logger, _ := test.NewNullLogger()
	e := &testEnv{
		logger: logger,
		tokens: service.NewTokenService("test-secret", time.Hour),
		users: newFakeUsers(
			models.User{Email: adminEmail, Name: "Boss", Role: models.RoleAdmin},
			models.User{Email: staffEmail, Name: "Staff"},
		),
		assets:   newFakeAssets(),
		custom:   newFakeCustom(),
		requests: newFakeRequests(),
		images:   &fakeImages{},
		mailer:   &fakeMailer{},
		logs:     &fakeEmailLogs{},
		health:   &fakePinger{},
	}
	e.notifier = &Notifier{Mailer: e.mailer, Logs: e.logs, Log: logger}
	return rebuild(t, e, opts...)
}

// rebuild wires a fresh router to the env's current fakes.
func rebuild(t *testing.T, e *testEnv, opts ...envOption) *testEnv {
	t.Helper()
	cfg := RouterConfig{
		Logger:         e.logger,
		Tokens:         e.tokens,
		Users:          e.users,
		Roles:          e.users,
		Assets:         e.assets,
		Custom:         e.custom,
		Requests:       e.requests,
		Images:         e.images,
		Health:         e.health,
		Notifier:       e.notifier,
		Metrics:        middleware.NewMetrics(),
		CORSOrigins:    []string{"*"},
		RequestTimeout: 5 * time.Second,
		MaxUploadBytes: 1 << 20,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	e.router = NewRouter(cfg)
	return e
}

func (e *testEnv) token(t *testing.T, email string) string {
	t.Helper()
	tok, err := e.tokens.Issue(map[string]interface{}{"email": email})
	require.NoError(t, err)
	return tok
}

func (e *testEnv) do(t *testing.T, method, path, body, token string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dst), rec.Body.String())
}

func TestIssueToken(t *testing.T) {
	e := newTestEnv(t)

	rec := e.do(t, http.MethodPost, "/jwt", `{"email":"anyone@x.io","name":"Any"}`, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var resp TokenResponse
	decode(t, rec, &resp)

	claims, err := e.tokens.Verify(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, "anyone@x.io", claims["email"])

	for _, body := range []string{`[1,2]`, `null`, `{`} {
		rec = e.do(t, http.MethodPost, "/jwt", body, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
	}
}

func TestRouteAuthorization(t *testing.T) {
	staffID := primitive.NewObjectID()
	assetID := primitive.NewObjectID()
	reqID := primitive.NewObjectID()

	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		adminOnly  bool
		tokenOnly  bool
		wantAsUser int
	}{
		{name: "create asset", method: http.MethodPost, path: "/asset", body: `{"product":"Desk","type":"returnable","quantity":1}`, adminOnly: true},
		{name: "update asset", method: http.MethodPatch, path: "/asset/" + assetID.Hex(), body: `{"quantity":3}`, adminOnly: true},
		{name: "delete asset", method: http.MethodDelete, path: "/asset/" + assetID.Hex(), adminOnly: true},
		{name: "promote user", method: http.MethodPatch, path: "/user/admin/" + staffID.Hex(), adminOnly: true},
		{name: "delete user", method: http.MethodDelete, path: "/user/" + staffID.Hex(), adminOnly: true},
		{name: "approve borrow", method: http.MethodPatch, path: "/myreq/approve/" + reqID.Hex(), adminOnly: true},
		{name: "reject borrow", method: http.MethodPatch, path: "/myreq/reject/" + reqID.Hex(), adminOnly: true},
		{name: "admin status", method: http.MethodGet, path: "/user/admin/" + staffEmail, tokenOnly: true, wantAsUser: http.StatusOK},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			e := newTestEnv(t)
			e.users = newFakeUsers(
				models.User{Email: adminEmail, Role: models.RoleAdmin},
				models.User{ID: staffID, Email: staffEmail},
			)
			e.assets = newFakeAssets(models.Asset{ID: assetID, Product: "Chair", Quantity: 1})
			e.requests = newFakeRequests(models.BorrowRequest{ID: reqID, Email: staffEmail, Status: models.StatusPending})
			e = rebuild(t, e)

			rec := e.do(t, tc.method, tc.path, tc.body, "")
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.JSONEq(t, `{"message":"forbidden access"}`, rec.Body.String())

			rec = e.do(t, tc.method, tc.path, tc.body, "not-a-token")
			assert.Equal(t, http.StatusUnauthorized, rec.Code)

			rec = e.do(t, tc.method, tc.path, tc.body, e.token(t, staffEmail))
			if tc.adminOnly {
				assert.Equal(t, http.StatusForbidden, rec.Code)
				assert.JSONEq(t, `{"message":"forbidden access"}`, rec.Body.String())
			} else {
				assert.Equal(t, tc.wantAsUser, rec.Code)
			}

			if tc.adminOnly {
				rec = e.do(t, tc.method, tc.path, tc.body, e.token(t, adminEmail))
				assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestPublicRoutesNeedNoToken(t *testing.T) {
	e := newTestEnv(t)
	for _, path := range []string{"/", "/health", "/user", "/asset", "/custom", "/myreq", "/custom/" + staffEmail, "/myreq/" + staffEmail} {
		rec := e.do(t, http.MethodGet, path, "", "")
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}

func TestHealth(t *testing.T) {
	e := newTestEnv(t)
	rec := e.do(t, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	e.health.err = errors.New("no primary")
	rec = e.do(t, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	e := newTestEnv(t)
	e.do(t, http.MethodGet, "/asset", "", "")

	rec := e.do(t, http.MethodGet, "/metrics", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `route="/asset`)
}

func TestUploadImage(t *testing.T) {
	png := append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 64)...)

	form := func(t *testing.T, field string, content []byte) (*bytes.Buffer, string) {
		t.Helper()
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		fw, err := mw.CreateFormFile(field, "laptop.png")
		require.NoError(t, err)
		_, err = fw.Write(content)
		require.NoError(t, err)
		require.NoError(t, mw.Close())
		return &buf, mw.FormDataContentType()
	}
	upload := func(e *testEnv, field string, content []byte, token string) *httptest.ResponseRecorder {
		body, ct := form(t, field, content)
		req := httptest.NewRequest(http.MethodPost, "/custom/image", body)
		req.Header.Set("Content-Type", ct)
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		rec := httptest.NewRecorder()
		e.router.ServeHTTP(rec, req)
		return rec
	}

	t.Run("stores image under caller", func(t *testing.T) {
		e := newTestEnv(t)
		rec := upload(e, "image", png, e.token(t, staffEmail))
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var resp UploadResponse
		decode(t, rec, &resp)
		assert.Equal(t, "custom/"+staffEmail+"/img.png", resp.Key)
		assert.Equal(t, staffEmail, e.images.owner)
		assert.Equal(t, "laptop.png", e.images.filename)
		assert.Equal(t, "image/png", e.images.contentType)
		assert.Equal(t, string(png), e.images.body)
	})

	t.Run("requires token", func(t *testing.T) {
		e := newTestEnv(t)
		assert.Equal(t, http.StatusUnauthorized, upload(e, "image", png, "").Code)
	})

	t.Run("rejects non image", func(t *testing.T) {
		e := newTestEnv(t)
		rec := upload(e, "image", []byte("#!/bin/sh\necho hi\n"), e.token(t, staffEmail))
		assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
	})

	t.Run("missing field", func(t *testing.T) {
		e := newTestEnv(t)
		rec := upload(e, "file", png, e.token(t, staffEmail))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("not configured", func(t *testing.T) {
		e := newTestEnv(t, withoutImages())
		rec := upload(e, "image", png, e.token(t, staffEmail))
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
}
