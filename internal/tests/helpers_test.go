package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/bizchat/server/internal/auth"
	"github.com/bizchat/server/internal/chat"
	httphandler "github.com/bizchat/server/internal/http"
	"github.com/bizchat/server/internal/http/handlers"
	"github.com/bizchat/server/internal/middleware"
	"github.com/bizchat/server/internal/model"
	"github.com/bizchat/server/internal/realtime"
	"github.com/bizchat/server/internal/repo"
)

const (
	testPhone      = "+213555000000"
	testCookieName = "bizchat_session"
)

type serverOptions struct {
	devMode    bool
	otpIPLimit int
}

// testServer wires the full HTTP stack over the given directory
type testServer struct {
	Server *httptest.Server
	Hub    *realtime.Hub
	Dir    *repo.Directory
}

func newTestServer(t *testing.T, dir *repo.Directory, opts serverOptions) *testServer {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	if opts.otpIPLimit == 0 {
		opts.otpIPLimit = 1000
	}

	credentials := auth.NewCredentialStore("test-otp-salt")
	sessions := auth.NewSessionStore()
	authService := auth.NewService(credentials, sessions, dir.Users, auth.LogSender{}, auth.Options{
		DevMode:               opts.devMode,
		RequireVerifiedSignup: true,
	})

	hub := realtime.NewHub()
	chatService := chat.NewService(dir, realtime.NewHubNotifier(hub), 24*time.Hour)

	router := httphandler.NewRouter(httphandler.Deps{
		Auth:              handlers.NewAuthHandler(authService, handlers.CookieConfig{Name: testCookieName, MaxAge: time.Hour}),
		User:              handlers.NewUserHandler(authService),
		Chat:              handlers.NewChatHandler(chatService),
		Story:             handlers.NewStoryHandler(chatService),
		Feature:           handlers.NewFeatureHandler(chatService),
		Sessions:          sessions,
		Hub:               hub,
		CORSOrigins:       []string{"*"},
		SessionCookieName: testCookieName,
		OTPLimiter:        middleware.NewRateLimiter(ctx, 10*time.Minute, opts.otpIPLimit),
		VerifyLimiter:     middleware.NewRateLimiter(ctx, 10*time.Minute, 1000),
	})

	server := httptest.NewServer(router)
	t.Cleanup(func() {
		hub.CloseAll()
		server.Close()
	})

	return &testServer{Server: server, Hub: hub, Dir: dir}
}

func (s *testServer) BaseURL() string { return s.Server.URL }

func (s *testServer) WSURL() string {
	return "ws" + strings.TrimPrefix(s.Server.URL, "http") + "/ws"
}

// do sends a JSON request; token may be empty for anonymous calls.
func (s *testServer) do(t *testing.T, method, path, token string, body any) (*http.Response, string) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, s.BaseURL()+path, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := s.Server.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	return resp, readBody(resp)
}

// signup runs send-otp, verify-otp and create-user for a new phone number.
func (s *testServer) signup(t *testing.T, phone, name, location string) (model.User, string) {
	t.Helper()

	code := s.sendOtp(t, phone)

	resp, body := s.do(t, http.MethodPost, "/api/auth/verify-otp", "", map[string]string{"phoneNumber": phone, "otpCode": code})
	require.Equal(t, http.StatusOK, resp.StatusCode, "verify-otp body: %s", body)
	var verify verifyResponse
	require.NoError(t, json.Unmarshal([]byte(body), &verify))
	require.True(t, verify.RequiresProfile, "new number must require a profile; body: %s", body)

	resp, body = s.do(t, http.MethodPost, "/api/auth/create-user", "", map[string]string{
		"phoneNumber": phone, "name": name, "location": location,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, "create-user body: %s", body)
	var created sessionResponse
	require.NoError(t, json.Unmarshal([]byte(body), &created))
	require.True(t, created.Success)
	require.NotEmpty(t, created.Token)
	return created.User, created.Token
}

// sendOtp requests a code; the server must run in dev mode.
func (s *testServer) sendOtp(t *testing.T, phone string) string {
	t.Helper()
	resp, body := s.do(t, http.MethodPost, "/api/auth/send-otp", "", map[string]string{"phoneNumber": phone})
	require.Equal(t, http.StatusOK, resp.StatusCode, "send-otp body: %s", body)
	var res sendOtpResponse
	require.NoError(t, json.Unmarshal([]byte(body), &res))
	require.NotEmpty(t, res.OTP, "otp must be echoed in dev mode")
	return res.OTP
}

// sendOtpResponse matches POST /api/auth/send-otp response
type sendOtpResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	OTP     string `json:"otp"`
}

// verifyResponse matches POST /api/auth/verify-otp response
type verifyResponse struct {
	Success         bool       `json:"success"`
	RequiresProfile bool       `json:"requiresProfile"`
	User            model.User `json:"user"`
	Token           string     `json:"token"`
}

// sessionResponse matches create-user and successful verify-otp responses
type sessionResponse struct {
	Success bool       `json:"success"`
	User    model.User `json:"user"`
	Token   string     `json:"token"`
}

// errorResponse matches error JSON body
type errorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func readBody(resp *http.Response) string {
	b, _ := io.ReadAll(resp.Body)
	return string(b)
}
