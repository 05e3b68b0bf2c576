package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"jaryo/config"
	"jaryo/database"
	"jaryo/repositories"
	"jaryo/services"
	"jaryo/storage"
	"jaryo/utils"

	"github.com/gin-gonic/gin"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Count   *int            `json:"count"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
}

type testServer struct {
	cfg      *config.Config
	services *services.Container
	router   *gin.Engine
}

type filePart struct {
	name    string
	content []byte
}

type fileDTO struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Category string   `json:"category"`
	Tags     []string `json:"tags"`
	Files    []struct {
		ID           uint   `json:"id"`
		OriginalName string `json:"original_name"`
		FileSize     int64  `json:"file_size"`
	} `json:"files"`
}

func newTestServer(t *testing.T, mutate func(cfg *config.Config)) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.Default()
	cfg.Database.Path = filepath.Join(t.TempDir(), "jaryo.db")
	cfg.Storage.BasePath = t.TempDir()
	cfg.Seed.AdminEmail = "admin@example.com"
	cfg.Seed.AdminPassword = "adminpw"
	if mutate != nil {
		mutate(cfg)
	}

	db, err := database.Open(&cfg.Database)
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { database.Close(db) })
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	blobs, err := storage.NewLocalStore(cfg.Storage.BasePath)
	if err != nil {
		t.Fatalf("local store: %v", err)
	}
	signer, err := utils.NewTokenSigner("handler-test-secret", cfg.JWT.Issuer)
	if err != nil {
		t.Fatalf("signer: %v", err)
	}

	repos := repositories.NewGormRepositories(db, nil, "").BuildContainer()
	container := services.NewContainer(repos, blobs, signer, cfg)
	ctx := context.Background()
	if err := container.Categories.EnsureDefaults(ctx, cfg.Categories.Defaults); err != nil {
		t.Fatalf("seed categories: %v", err)
	}
	if err := container.Auth.EnsureAdmin(ctx, cfg.Seed.AdminEmail, cfg.Seed.AdminPassword, cfg.Seed.AdminName); err != nil {
		t.Fatalf("seed admin: %v", err)
	}

	return &testServer{cfg: cfg, services: container, router: New(container, cfg).Router()}
}

func (s *testServer) do(req *http.Request, cookie *http.Cookie) *httptest.ResponseRecorder {
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) doJSON(t *testing.T, method string, path string, body interface{}, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	return s.do(req, cookie)
}

func (s *testServer) login(t *testing.T, email string, password string) *http.Cookie {
	t.Helper()
	rec := s.doJSON(t, http.MethodPost, "/api/auth/login", gin.H{"email": email, "password": password}, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("login %s: status %d body %s", email, rec.Code, rec.Body.String())
	}
	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == s.cfg.AuthCookie.Name {
			return cookie
		}
	}
	t.Fatalf("login did not set the session cookie")
	return nil
}

func (s *testServer) userCookie(t *testing.T) *http.Cookie {
	t.Helper()
	rec := s.doJSON(t, http.MethodPost, "/api/auth/signup", gin.H{"email": "user@example.com", "password": "secret1", "name": "사용자"}, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("signup: status %d body %s", rec.Code, rec.Body.String())
	}
	return s.login(t, "user@example.com", "secret1")
}

func multipartRequest(t *testing.T, method string, path string, fields map[string]string, parts ...filePart) *http.Request {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	for _, part := range parts {
		fw, err := writer.CreateFormFile("files", part.name)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := fw.Write(part.content); err != nil {
			t.Fatalf("write file: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope %q: %v", rec.Body.String(), err)
	}
	return env
}

func (s *testServer) createFile(t *testing.T, cookie *http.Cookie, fields map[string]string, parts ...filePart) fileDTO {
	t.Helper()
	rec := s.do(multipartRequest(t, http.MethodPost, "/api/files", fields, parts...), cookie)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create file: status %d body %s", rec.Code, rec.Body.String())
	}
	var file fileDTO
	if err := json.Unmarshal(decodeEnvelope(t, rec).Data, &file); err != nil {
		t.Fatalf("decode file: %v", err)
	}
	return file
}

func TestHealthAndUnknownRoute(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := srv.do(httptest.NewRequest(http.MethodGet, "/health", nil), nil)
	if rec.Code != http.StatusOK || !decodeEnvelope(t, rec).Success {
		t.Fatalf("unexpected health response %d %s", rec.Code, rec.Body.String())
	}

	rec = srv.do(httptest.NewRequest(http.MethodGet, "/api/nope", nil), nil)
	env := decodeEnvelope(t, rec)
	if rec.Code != http.StatusNotFound || env.Success || env.Error == "" {
		t.Fatalf("unexpected 404 response %d %s", rec.Code, rec.Body.String())
	}
}

func TestCreateFileRequiresTitleAndCategory(t *testing.T) {
	srv := newTestServer(t, nil)
	cookie := srv.userCookie(t)

	for _, fields := range []map[string]string{
		{"title": "", "category": "문서"},
		{"title": "제목", "category": " "},
		{"category": "문서"},
	} {
		rec := srv.do(multipartRequest(t, http.MethodPost, "/api/files", fields), cookie)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400 for %v, got %d %s", fields, rec.Code, rec.Body.String())
		}
		if decodeEnvelope(t, rec).Success {
			t.Fatalf("expected success=false")
		}
	}

	file := srv.createFile(t, cookie, map[string]string{"title": "제목", "category": "문서"})
	empty := ""
	rec := srv.do(multipartRequest(t, http.MethodPut, "/api/files/"+file.ID, map[string]string{"title": empty}), cookie)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 on empty title update, got %d", rec.Code)
	}
}

func TestMutationsRequireAuthAndAdmin(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := srv.do(multipartRequest(t, http.MethodPost, "/api/files", map[string]string{"title": "t", "category": "문서"}), nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without session, got %d", rec.Code)
	}
	rec = srv.do(httptest.NewRequest(http.MethodGet, "/api/files", nil), nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 listing without session, got %d", rec.Code)
	}
	rec = srv.do(httptest.NewRequest(http.MethodGet, "/api/files/public", nil), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected public listing to be open, got %d", rec.Code)
	}

	userCookie := srv.userCookie(t)
	rec = srv.doJSON(t, http.MethodPost, "/api/categories", gin.H{"name": "새 분류"}, userCookie)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-admin, got %d", rec.Code)
	}

	adminCookie := srv.login(t, "admin@example.com", "adminpw")
	rec = srv.doJSON(t, http.MethodPost, "/api/categories", gin.H{"name": "새 분류"}, adminCookie)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected admin to create category, got %d %s", rec.Code, rec.Body.String())
	}
}

func TestBearerTokenAndSessionEndpoints(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := srv.do(httptest.NewRequest(http.MethodGet, "/api/auth/session", nil), nil)
	var anon struct {
		Success bool            `json:"success"`
		User    json.RawMessage `json:"user"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &anon); err != nil {
		t.Fatalf("decode session: %v", err)
	}
	if rec.Code != http.StatusOK || !anon.Success || string(anon.User) != "null" {
		t.Fatalf("expected anonymous session to be null, got %d %s", rec.Code, rec.Body.String())
	}

	cookie := srv.userCookie(t)
	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+cookie.Value)
	rec = srv.do(req, nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "user@example.com") {
		t.Fatalf("expected bearer token to authenticate, got %d %s", rec.Code, rec.Body.String())
	}

	rec = srv.do(httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil), cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("logout: %d", rec.Code)
	}
	rec = srv.do(httptest.NewRequest(http.MethodGet, "/api/auth/me", nil), cookie)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 after logout, got %d", rec.Code)
	}
}

func TestKoreanFilenameRoundTrip(t *testing.T) {
	srv := newTestServer(t, nil)
	cookie := srv.userCookie(t)
	content := []byte("%PDF-1.4 보고서")
	file := srv.createFile(t, cookie, map[string]string{"title": "분기 보고서", "category": "문서"},
		filePart{name: "보고서.pdf", content: content})

	if len(file.Files) != 1 || file.Files[0].OriginalName != "보고서.pdf" {
		t.Fatalf("unexpected attachments %+v", file.Files)
	}

	path := fmt.Sprintf("/api/download/%s/%d", file.ID, file.Files[0].ID)
	rec := srv.do(httptest.NewRequest(http.MethodGet, path, nil), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("download: %d %s", rec.Code, rec.Body.String())
	}
	disposition := rec.Header().Get("Content-Disposition")
	if !strings.Contains(disposition, "filename*=UTF-8''%EB%B3%B4%EA%B3%A0%EC%84%9C.pdf") {
		t.Fatalf("unexpected Content-Disposition %q", disposition)
	}
	_, params, err := mime.ParseMediaType(disposition)
	if err != nil {
		t.Fatalf("parse disposition: %v", err)
	}
	if params["filename"] != "보고서.pdf" {
		t.Fatalf("expected 보고서.pdf, got %q", params["filename"])
	}
	if rec.Header().Get("Content-Type") != "application/pdf" {
		t.Fatalf("unexpected content type %q", rec.Header().Get("Content-Type"))
	}
	if !bytes.Equal(rec.Body.Bytes(), content) {
		t.Fatalf("unexpected body %q", rec.Body.String())
	}
}

func TestRangeDownload(t *testing.T) {
	srv := newTestServer(t, nil)
	cookie := srv.userCookie(t)
	content := bytes.Repeat([]byte("0123456789"), 100)
	file := srv.createFile(t, cookie, map[string]string{"title": "range", "category": "문서"},
		filePart{name: "data.bin", content: content})
	path := fmt.Sprintf("/api/download/%s/%d", file.ID, file.Files[0].ID)

	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Header.Set("Range", "bytes=0-99")
	rec := srv.do(req, nil)
	if rec.Code != http.StatusPartialContent {
		t.Fatalf("expected 206, got %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Range"); got != "bytes 0-99/1000" {
		t.Fatalf("unexpected Content-Range %q", got)
	}
	if rec.Body.Len() != 100 || !bytes.Equal(rec.Body.Bytes(), content[:100]) {
		t.Fatalf("expected first 100 bytes, got %d", rec.Body.Len())
	}

	rec = srv.do(httptest.NewRequest(http.MethodGet, path, nil), nil)
	if rec.Code != http.StatusOK || rec.Body.Len() != 1000 {
		t.Fatalf("expected full body, got %d with %d bytes", rec.Code, rec.Body.Len())
	}
	if rec.Header().Get("Accept-Ranges") != "bytes" {
		t.Fatalf("expected Accept-Ranges: bytes")
	}

	req = httptest.NewRequest(http.MethodGet, path, nil)
	req.Header.Set("Range", "bytes=5000-")
	rec = srv.do(req, nil)
	if rec.Code != http.StatusRequestedRangeNotSatisfiable {
		t.Fatalf("expected 416, got %d", rec.Code)
	}

	rec = srv.do(httptest.NewRequest(http.MethodHead, path, nil), nil)
	if rec.Code != http.StatusOK || rec.Header().Get("Content-Length") != "1000" || rec.Body.Len() != 0 {
		t.Fatalf("unexpected HEAD response %d len=%s body=%d", rec.Code, rec.Header().Get("Content-Length"), rec.Body.Len())
	}
}

func TestDownloadIsScopedByBothIDs(t *testing.T) {
	srv := newTestServer(t, nil)
	cookie := srv.userCookie(t)
	owner := srv.createFile(t, cookie, map[string]string{"title": "a", "category": "문서"}, filePart{name: "a.txt", content: []byte("a")})
	other := srv.createFile(t, cookie, map[string]string{"title": "b", "category": "문서"})

	for _, path := range []string{
		fmt.Sprintf("/api/download/%s/%d", other.ID, owner.Files[0].ID),
		fmt.Sprintf("/api/download/%s/999", owner.ID),
		fmt.Sprintf("/api/download/%s/abc", owner.ID),
	} {
		rec := srv.do(httptest.NewRequest(http.MethodGet, path, nil), nil)
		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404 for %s, got %d", path, rec.Code)
		}
	}
}

func TestDeleteFileThenDownloadReturns404(t *testing.T) {
	srv := newTestServer(t, nil)
	cookie := srv.userCookie(t)
	file := srv.createFile(t, cookie, map[string]string{"title": "삭제", "category": "문서"},
		filePart{name: "a.txt", content: []byte("a")},
		filePart{name: "b.txt", content: []byte("b")})

	rec := srv.do(httptest.NewRequest(http.MethodDelete, "/api/files/"+file.ID, nil), cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete: %d %s", rec.Code, rec.Body.String())
	}
	for _, attachment := range file.Files {
		path := fmt.Sprintf("/api/download/%s/%d", file.ID, attachment.ID)
		rec := srv.do(httptest.NewRequest(http.MethodGet, path, nil), nil)
		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404 after delete, got %d", rec.Code)
		}
	}
	rec = srv.do(httptest.NewRequest(http.MethodDelete, "/api/files/"+file.ID, nil), cookie)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 on second delete, got %d", rec.Code)
	}
}

func TestUpdateFileReplacesFieldsAndAttachments(t *testing.T) {
	srv := newTestServer(t, nil)
	cookie := srv.userCookie(t)
	file := srv.createFile(t, cookie, map[string]string{"title": "원본", "category": "문서", "tags": `["a"]`},
		filePart{name: "old.txt", content: []byte("old")})

	req := multipartRequest(t, http.MethodPut, "/api/files/"+file.ID, map[string]string{
		"category":      "이미지",
		"tags":          "x, y",
		"filesToDelete": fmt.Sprintf("[%d]", file.Files[0].ID),
	}, filePart{name: "new.txt", content: []byte("new")})
	rec := srv.do(req, cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("update: %d %s", rec.Code, rec.Body.String())
	}
	var updated fileDTO
	if err := json.Unmarshal(decodeEnvelope(t, rec).Data, &updated); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if updated.Title != "원본" || updated.Category != "이미지" {
		t.Fatalf("unexpected fields %+v", updated)
	}
	if len(updated.Tags) != 2 || updated.Tags[0] != "x" || updated.Tags[1] != "y" {
		t.Fatalf("unexpected tags %v", updated.Tags)
	}
	if len(updated.Files) != 1 || updated.Files[0].OriginalName != "new.txt" {
		t.Fatalf("unexpected attachments %+v", updated.Files)
	}

	rec = srv.do(multipartRequest(t, http.MethodPut, "/api/files/missing", map[string]string{"title": "x"}), cookie)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 updating unknown file, got %d", rec.Code)
	}
}

func TestSearchByTagAndMiss(t *testing.T) {
	srv := newTestServer(t, nil)
	cookie := srv.userCookie(t)
	srv.createFile(t, cookie, map[string]string{"title": "회의록", "category": "문서", "tags": `["기획","sprint-12"]`})
	srv.createFile(t, cookie, map[string]string{"title": "예산", "category": "문서"})

	rec := srv.do(httptest.NewRequest(http.MethodGet, "/api/files/public?search=SPRINT", nil), nil)
	env := decodeEnvelope(t, rec)
	if rec.Code != http.StatusOK || env.Count == nil || *env.Count != 1 {
		t.Fatalf("expected one tag match, got %d %s", rec.Code, rec.Body.String())
	}

	rec = srv.do(httptest.NewRequest(http.MethodGet, "/api/files?search=nothing-matches", nil), cookie)
	env = decodeEnvelope(t, rec)
	if env.Count == nil || *env.Count != 0 || string(env.Data) != "[]" {
		t.Fatalf("expected empty list with count 0, got %s", rec.Body.String())
	}

	rec = srv.do(httptest.NewRequest(http.MethodGet, "/api/files/public?limit=1", nil), nil)
	env = decodeEnvelope(t, rec)
	if env.Count == nil || *env.Count != 1 {
		t.Fatalf("expected limit to apply, got %s", rec.Body.String())
	}
}

func TestCategoryLifecycle(t *testing.T) {
	srv := newTestServer(t, nil)
	admin := srv.login(t, "admin@example.com", "adminpw")

	listCount := func() int {
		rec := srv.do(httptest.NewRequest(http.MethodGet, "/api/categories", nil), nil)
		env := decodeEnvelope(t, rec)
		if env.Count == nil {
			t.Fatalf("expected count in %s", rec.Body.String())
		}
		return *env.Count
	}
	before := listCount()

	rec := srv.doJSON(t, http.MethodPost, "/api/categories", gin.H{"name": "회의"}, admin)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create category: %d %s", rec.Code, rec.Body.String())
	}
	var created struct {
		ID   uint   `json:"id"`
		Name string `json:"name"`
	}
	if err := json.Unmarshal(decodeEnvelope(t, rec).Data, &created); err != nil {
		t.Fatalf("decode: %v", err)
	}

	rec = srv.doJSON(t, http.MethodPost, "/api/categories", gin.H{"name": "회의"}, admin)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for duplicate, got %d", rec.Code)
	}
	if got := listCount(); got != before+1 {
		t.Fatalf("expected %d categories, got %d", before+1, got)
	}

	file := srv.createFile(t, admin, map[string]string{"title": "주간 회의", "category": "회의"})

	rec = srv.doJSON(t, http.MethodDelete, fmt.Sprintf("/api/categories/%d", created.ID), nil, admin)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete category: %d %s", rec.Code, rec.Body.String())
	}

	rec = srv.do(httptest.NewRequest(http.MethodGet, "/api/files/"+file.ID, nil), nil)
	var reloaded fileDTO
	if err := json.Unmarshal(decodeEnvelope(t, rec).Data, &reloaded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if reloaded.Category != "기타" {
		t.Fatalf("expected reassignment to 기타, got %q", reloaded.Category)
	}
}

func TestUploadTooLargeReturns413(t *testing.T) {
	srv := newTestServer(t, func(cfg *config.Config) {
		cfg.Upload.MaxTotalSize = 1024
	})
	cookie := srv.userCookie(t)

	rec := srv.do(multipartRequest(t, http.MethodPost, "/api/files", map[string]string{"title": "big", "category": "문서"},
		filePart{name: "big.bin", content: bytes.Repeat([]byte("x"), 4096)}), cookie)
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d %s", rec.Code, rec.Body.String())
	}
}

func TestArchiveDownloadAndStats(t *testing.T) {
	srv := newTestServer(t, nil)
	cookie := srv.userCookie(t)
	file := srv.createFile(t, cookie, map[string]string{"title": "묶음", "category": "문서"},
		filePart{name: "a.txt", content: []byte("a")},
		filePart{name: "b.txt", content: []byte("b")})

	rec := srv.do(httptest.NewRequest(http.MethodGet, "/api/download/"+file.ID, nil), nil)
	if rec.Code != http.StatusOK || rec.Header().Get("Content-Type") != "application/zip" {
		t.Fatalf("unexpected archive response %d %s", rec.Code, rec.Header().Get("Content-Type"))
	}
	if !bytes.HasPrefix(rec.Body.Bytes(), []byte("PK")) {
		t.Fatalf("expected zip payload")
	}

	rec = srv.do(httptest.NewRequest(http.MethodGet, "/api/stats", nil), nil)
	var stats services.StatsOutput
	if err := json.Unmarshal(decodeEnvelope(t, rec).Data, &stats); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if stats.TotalFiles != 1 || stats.TotalAttachments != 2 {
		t.Fatalf("unexpected stats %+v", stats)
	}
}
