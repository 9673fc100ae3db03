package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/dkowalsky/favourites-api/internal/auth"
	"github.com/dkowalsky/favourites-api/internal/store"
)

func setupTestRouter(t *testing.T) (*gin.Engine, *store.Memory, *auth.Codec) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	codec, err := auth.NewCodec("test-secret")
	if err != nil {
		t.Fatalf("failed to create codec: %v", err)
	}

	memory := store.NewMemory()
	handler := NewHandler(auth.NewService(codec, memory), codec, memory, zap.NewNop())

	router := gin.New()
	handler.RegisterRoutes(router)

	return router, memory, codec
}

func TestRegisterLoginFavouritesFlow(t *testing.T) {
	router, _, _ := setupTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/user/register", map[string]string{
		"userName": "alice",
		"password": "pw1",
	}, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("register: expected status 200, got %d (%s)", rec.Code, rec.Body)
	}

	var registerResp map[string]any
	decodeBody(t, rec.Body.Bytes(), &registerResp)
	if registerResp["message"] != "User alice successfully registered" {
		t.Fatalf("unexpected register message: %v", registerResp["message"])
	}

	rec = doJSON(t, router, http.MethodPost, "/api/user/login", map[string]string{
		"userName": "alice",
		"password": "pw1",
	}, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("login: expected status 200, got %d (%s)", rec.Code, rec.Body)
	}

	var loginResp map[string]any
	decodeBody(t, rec.Body.Bytes(), &loginResp)
	token, _ := loginResp["token"].(string)
	if token == "" {
		t.Fatalf("expected token in login response")
	}
	if loginResp["message"] != "User Logged In" {
		t.Fatalf("unexpected login message: %v", loginResp["message"])
	}

	rec = doJSON(t, router, http.MethodGet, "/api/user/favourites", nil, token)
	if rec.Code != http.StatusOK {
		t.Fatalf("list favourites: expected status 200, got %d (%s)", rec.Code, rec.Body)
	}
	assertFavourites(t, rec.Body.Bytes())

	rec = doJSON(t, router, http.MethodPut, "/api/user/favourites/item42", nil, token)
	if rec.Code != http.StatusOK {
		t.Fatalf("add favourite: expected status 200, got %d (%s)", rec.Code, rec.Body)
	}
	assertFavourites(t, rec.Body.Bytes(), "item42")

	rec = doJSON(t, router, http.MethodDelete, "/api/user/favourites/item42", nil, token)
	if rec.Code != http.StatusOK {
		t.Fatalf("remove favourite: expected status 200, got %d (%s)", rec.Code, rec.Body)
	}
	assertFavourites(t, rec.Body.Bytes())
}

func TestRegisterDuplicateUserName(t *testing.T) {
	router, _, _ := setupTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/user/register", map[string]string{
		"userName": "alice",
		"password": "pw1",
	}, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	rec = doJSON(t, router, http.MethodPost, "/api/user/register", map[string]string{
		"userName": "alice",
		"password": "pw2",
	}, "")
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected status 409 for duplicate username, got %d", rec.Code)
	}
}

func TestRegisterValidation(t *testing.T) {
	router, _, _ := setupTestRouter(t)

	for name, body := range map[string]map[string]string{
		"missing username": {"password": "pw1"},
		"missing password": {"userName": "alice"},
	} {
		rec := doJSON(t, router, http.MethodPost, "/api/user/register", body, "")
		if rec.Code != http.StatusUnprocessableEntity {
			t.Fatalf("%s: expected status 422, got %d", name, rec.Code)
		}
	}
}

func TestLoginFailures(t *testing.T) {
	router, _, _ := setupTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/user/login", map[string]string{
		"userName": "ghost",
		"password": "pw1",
	}, "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status 404 for unknown user, got %d", rec.Code)
	}

	rec = doJSON(t, router, http.MethodPost, "/api/user/register", map[string]string{
		"userName": "alice",
		"password": "pw1",
	}, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	rec = doJSON(t, router, http.MethodPost, "/api/user/login", map[string]string{
		"userName": "alice",
		"password": "wrong",
	}, "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401 for wrong password, got %d", rec.Code)
	}
}

func TestFavouritesRejectUnauthenticated(t *testing.T) {
	router, memory, _ := setupTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/user/register", map[string]string{
		"userName": "alice",
		"password": "pw1",
	}, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	user, err := memory.GetUserByName(context.Background(), "alice")
	if err != nil {
		t.Fatalf("get user returned error: %v", err)
	}

	foreignCodec, err := auth.NewCodec("another-secret")
	if err != nil {
		t.Fatalf("failed to create codec: %v", err)
	}
	foreignToken, err := foreignCodec.Encode(auth.Claims{UserID: user.ID, UserName: "alice"})
	if err != nil {
		t.Fatalf("encode returned error: %v", err)
	}

	for name, header := range map[string]string{
		"no token":      "",
		"wrong scheme":  "Bearer " + foreignToken,
		"wrong secret":  "jwt " + foreignToken,
		"garbage token": "jwt not.a.token",
	} {
		req := httptest.NewRequest(http.MethodPut, "/api/user/favourites/item42", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("%s: expected status 401, got %d", name, rec.Code)
		}
	}

	// every rejection must happen before the store is touched
	favourites, err := memory.GetFavourites(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("get favourites returned error: %v", err)
	}
	if len(favourites) != 0 {
		t.Fatalf("expected no store side effects, got favourites %v", favourites)
	}
}

func TestFavouritesIdempotence(t *testing.T) {
	router, _, _ := setupTestRouter(t)
	token := registerAndLogin(t, router, "alice", "pw1")

	rec := doJSON(t, router, http.MethodPut, "/api/user/favourites/item42", nil, token)
	if rec.Code != http.StatusOK {
		t.Fatalf("add favourite: expected status 200, got %d", rec.Code)
	}

	rec = doJSON(t, router, http.MethodPut, "/api/user/favourites/item42", nil, token)
	if rec.Code != http.StatusOK {
		t.Fatalf("repeated add: expected status 200, got %d", rec.Code)
	}
	assertFavourites(t, rec.Body.Bytes(), "item42")

	rec = doJSON(t, router, http.MethodDelete, "/api/user/favourites/absent", nil, token)
	if rec.Code != http.StatusOK {
		t.Fatalf("absent remove: expected status 200, got %d", rec.Code)
	}
	assertFavourites(t, rec.Body.Bytes(), "item42")
}

func TestFavouritesIgnoreTokenSnapshot(t *testing.T) {
	router, memory, codec := setupTestRouter(t)
	token := registerAndLogin(t, router, "alice", "pw1")

	claims, err := codec.Decode(token)
	if err != nil {
		t.Fatalf("decode returned error: %v", err)
	}
	if len(claims.Favourites) != 0 {
		t.Fatalf("expected empty favourites snapshot in token, got %v", claims.Favourites)
	}

	// mutate behind the token's back; responses must reflect the store
	if _, err := memory.AddFavourite(context.Background(), claims.UserID, "item99"); err != nil {
		t.Fatalf("add favourite returned error: %v", err)
	}

	rec := doJSON(t, router, http.MethodGet, "/api/user/favourites", nil, token)
	if rec.Code != http.StatusOK {
		t.Fatalf("list favourites: expected status 200, got %d", rec.Code)
	}
	assertFavourites(t, rec.Body.Bytes(), "item99")
}

func registerAndLogin(t *testing.T, router *gin.Engine, userName, password string) string {
	t.Helper()

	body := map[string]string{"userName": userName, "password": password}

	rec := doJSON(t, router, http.MethodPost, "/api/user/register", body, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("register: expected status 200, got %d", rec.Code)
	}

	rec = doJSON(t, router, http.MethodPost, "/api/user/login", body, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("login: expected status 200, got %d", rec.Code)
	}

	var loginResp map[string]any
	decodeBody(t, rec.Body.Bytes(), &loginResp)
	token, _ := loginResp["token"].(string)
	if token == "" {
		t.Fatalf("expected token in login response")
	}

	return token
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "jwt "+token)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, data []byte, out any) {
	t.Helper()
	if err := json.Unmarshal(data, out); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
}

func assertFavourites(t *testing.T, body []byte, want ...string) {
	t.Helper()

	var favourites []string
	decodeBody(t, body, &favourites)

	if len(favourites) != len(want) {
		t.Fatalf("expected favourites %v, got %v", want, favourites)
	}
	for i := range want {
		if favourites[i] != want[i] {
			t.Fatalf("expected favourites %v, got %v", want, favourites)
		}
	}
}
