package files

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"filevault-backend/internal/shared/auth"
	"filevault-backend/internal/shared/storage/blob/crypto"
	"filevault-backend/internal/shared/storage/blob/local"
)

func newTestRouter(t *testing.T, maxUploadBytes int64) (*gin.Engine, *Service) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	inner := local.New(t.TempDir())
	store := crypto.New(inner, crypto.ResolveKey("handler-test-secret"))
	svc := &Service{Blobs: store, Repo: NewMemoryRepo()}
	handler := NewHandler(svc, maxUploadBytes)

	router := gin.New()
	api := router.Group("/api/v1")
	api.Use(func(c *gin.Context) {
		if header := c.GetHeader("X-Test-User"); header != "" {
			ident := auth.Identity{UserID: header, IsAdmin: c.GetHeader("X-Test-Admin") == "true"}
			c.Set("identity", ident)
			c.Set("userId", ident.UserID)
		}
		c.Next()
	})
	handler.RegisterRoutes(api)
	return router, svc
}

func multipartBody(t *testing.T, fieldName, fileName, payload, description string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(fieldName, fileName)
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	if _, err := fw.Write([]byte(payload)); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if description != "" {
		if err := mw.WriteField("description", description); err != nil {
			t.Fatalf("WriteField: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	return &buf, mw.FormDataContentType()
}

func uploadFile(t *testing.T, router *gin.Engine, user, fileName, payload string) FileResponse {
	t.Helper()
	body, contentType := multipartBody(t, "file", fileName, payload, "")
	req := httptest.NewRequest(http.MethodPost, "/api/v1/files", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("X-Test-User", user)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusCreated {
		t.Fatalf("upload status = %d, body = %s", resp.Code, resp.Body.String())
	}
	var out FileResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &out); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	return out
}

func TestHandlerUploadThenDownload(t *testing.T) {
	router, _ := newTestRouter(t, 0)
	payload := "hello, world!"

	uploaded := uploadFile(t, router, "user-1", "hello.txt", payload)
	if uploaded.SizeBytes != int64(len(payload)) {
		t.Fatalf("sizeBytes = %d, want %d", uploaded.SizeBytes, len(payload))
	}
	if uploaded.DownloadCount != 0 {
		t.Fatalf("downloadCount = %d, want 0", uploaded.DownloadCount)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/files/"+uploaded.FileID+"/download", nil)
	req.Header.Set("X-Test-User", "user-1")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("download status = %d, body = %s", resp.Code, resp.Body.String())
	}
	if got := resp.Header().Get("Content-Length"); got != "13" {
		t.Fatalf("Content-Length = %q, want 13", got)
	}
	if resp.Body.String() != payload {
		t.Fatalf("body = %q, want %q", resp.Body.String(), payload)
	}

	// The download is reflected in the metadata.
	req = httptest.NewRequest(http.MethodGet, "/api/v1/files/"+uploaded.FileID, nil)
	req.Header.Set("X-Test-User", "user-1")
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("get status = %d", resp.Code)
	}
	var after FileResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &after); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if after.DownloadCount != 1 {
		t.Fatalf("downloadCount = %d, want 1", after.DownloadCount)
	}
	if after.LastDownloadedAt == nil {
		t.Fatal("lastDownloadedAt not set")
	}
}

func TestHandlerUploadTooLarge(t *testing.T) {
	router, _ := newTestRouter(t, 16)

	body, contentType := multipartBody(t, "file", "big.bin", strings.Repeat("a", 4096), "")
	req := httptest.NewRequest(http.MethodPost, "/api/v1/files", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("X-Test-User", "user-1")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status = %d, want 413, body = %s", resp.Code, resp.Body.String())
	}
	if !strings.Contains(resp.Body.String(), "payload_too_large") {
		t.Fatalf("body = %s", resp.Body.String())
	}
}

func TestHandlerUploadMissingFileField(t *testing.T) {
	router, _ := newTestRouter(t, 0)

	body, contentType := multipartBody(t, "attachment", "a.txt", "x", "")
	req := httptest.NewRequest(http.MethodPost, "/api/v1/files", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("X-Test-User", "user-1")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.Code)
	}
}

func TestHandlerOwnershipAndAdminAccess(t *testing.T) {
	router, _ := newTestRouter(t, 0)
	uploaded := uploadFile(t, router, "user-1", "secret.txt", "classified")

	cases := []struct {
		name   string
		user   string
		admin  bool
		status int
	}{
		{name: "owner", user: "user-1", status: http.StatusOK},
		{name: "stranger", user: "user-2", status: http.StatusForbidden},
		{name: "admin", user: "ops-1", admin: true, status: http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/files/"+uploaded.FileID, nil)
			req.Header.Set("X-Test-User", tc.user)
			if tc.admin {
				req.Header.Set("X-Test-Admin", "true")
			}
			resp := httptest.NewRecorder()
			router.ServeHTTP(resp, req)
			if resp.Code != tc.status {
				t.Fatalf("status = %d, want %d", resp.Code, tc.status)
			}
		})
	}
}

func TestHandlerListReturnsOwnFiles(t *testing.T) {
	router, _ := newTestRouter(t, 0)
	uploadFile(t, router, "user-1", "a.txt", "x")
	uploadFile(t, router, "user-1", "b.txt", "y")
	uploadFile(t, router, "user-2", "c.txt", "z")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/files", nil)
	req.Header.Set("X-Test-User", "user-1")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("status = %d", resp.Code)
	}
	var list []FileResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &list); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("len(list) = %d, want 2", len(list))
	}

	// Admin listing another user's files.
	req = httptest.NewRequest(http.MethodGet, "/api/v1/files?user_id=user-2", nil)
	req.Header.Set("X-Test-User", "ops-1")
	req.Header.Set("X-Test-Admin", "true")
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("admin list status = %d", resp.Code)
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &list); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("len(list) = %d, want 1", len(list))
	}
}

func TestHandlerDeleteThenNotFound(t *testing.T) {
	router, _ := newTestRouter(t, 0)
	uploaded := uploadFile(t, router, "user-1", "a.txt", "x")

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/files/"+uploaded.FileID, nil)
	req.Header.Set("X-Test-User", "user-1")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d, want 204", resp.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/files/"+uploaded.FileID+"/download", nil)
	req.Header.Set("X-Test-User", "user-1")
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("download status = %d, want 404", resp.Code)
	}
}

func TestHandlerRequiresIdentity(t *testing.T) {
	router, _ := newTestRouter(t, 0)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/files", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.Code)
	}
}
