package app

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"shareplace_backend/internal/config"
	"shareplace_backend/internal/logger"
)

type TestServer struct {
	Server *httptest.Server
	App    *App
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Server.Env = "test"
	cfg.Database.Driver = "memory"
	cfg.JWT.Secret = "test-secret"
	cfg.JWT.TTL = 60
	cfg.Storage.Type = "memory"
	cfg.Storage.BaseURL = "/files"
	cfg.Storage.Timeout = 5 * time.Second
	cfg.Upload.MaxSize = 1 << 20
	cfg.Upload.AllowedTypes = []string{"image/jpeg", "image/png", "image/gif"}
	cfg.Upload.ImageQuality = 85
	cfg.Cache.Enabled = true
	cfg.Cache.Driver = "memory"
	cfg.Cache.TTL = time.Minute
	cfg.Worker.BatchSize = 10
	cfg.CORS.AllowOrigins = []string{"*"}
	return cfg
}

func NewTestServer(t *testing.T) *TestServer {
	t.Helper()
	logger.Init("test", "error")

	application, err := New(context.Background(), testConfig())
	require.NoError(t, err)

	ts := &TestServer{
		Server: httptest.NewServer(application.Router),
		App:    application,
	}
	t.Cleanup(ts.Close)
	return ts
}

func (ts *TestServer) Close() {
	ts.Server.Close()
	ts.App.Close()
}

// SendRequest sends body as JSON and returns the response with its body.
func (ts *TestServer) SendRequest(t *testing.T, method, path, token string, body interface{}) (*http.Response, string) {
	t.Helper()

	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		require.NoError(t, err)
		reqBody = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequest(method, ts.Server.URL+path, reqBody)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return ts.do(t, req, token)
}

// SendMultipart sends fields and an optional image as multipart/form-data.
func (ts *TestServer) SendMultipart(t *testing.T, method, path, token string, fields map[string]string, image []byte) (*http.Response, string) {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if image != nil {
		part, err := w.CreateFormFile("image", "image.png")
		require.NoError(t, err)
		_, err = part.Write(image)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req, err := http.NewRequest(method, ts.Server.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return ts.do(t, req, token)
}

func (ts *TestServer) do(t *testing.T, req *http.Request, token string) (*http.Response, string) {
	t.Helper()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	res, err := ts.Server.Client().Do(req)
	require.NoError(t, err)
	defer res.Body.Close()

	resBody, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return res, string(resBody)
}

// Signup registers a user over HTTP and returns its id and token.
func (ts *TestServer) Signup(t *testing.T, name, email string) (string, string) {
	t.Helper()
	res, body := ts.SendMultipart(t, http.MethodPost, "/api/users/signup", "", map[string]string{
		"name":     name,
		"email":    email,
		"password": "secret123",
	}, pngImage(t))
	require.Equal(t, http.StatusCreated, res.StatusCode, body)

	var auth struct {
		UserID string `json:"userId"`
		Token  string `json:"token"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &auth))
	return auth.UserID, auth.Token
}

func pngImage(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 8, 8))))
	return buf.Bytes()
}

func decode(t *testing.T, body string, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal([]byte(body), v), body)
}
