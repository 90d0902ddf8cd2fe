package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mait-chat/backend/internal/handler/reply"
	"github.com/mait-chat/backend/internal/model/persona"
	chatservice "github.com/mait-chat/backend/internal/service/chat"
	"github.com/mait-chat/backend/internal/service/completion"
)

type failingReplier struct{}

func (failingReplier) GenerateReply(context.Context, string, string) (string, error) {
	return "", errors.New("model unavailable")
}

func (failingReplier) ForgetVisitor(string) {}

type echoReplier struct{}

func (echoReplier) GenerateReply(_ context.Context, _ string, message string) (string, error) {
	return "echo: " + message, nil
}

func (echoReplier) ForgetVisitor(string) {}

// newStack serves the reply endpoint and points chat sessions at it through
// the HTTP completion client, so the whole loop runs over the wire.
func newStack(t *testing.T, replier reply.Replier) (*httptest.Server, *chatservice.Service) {
	t.Helper()

	backend := httptest.NewServer(NewRouter(Deps{
		Personas: persona.NewMemoryStore(persona.Seed()),
		Chat:     mustService(t, completion.Func(func(context.Context, string) (string, error) { return "", nil })),
		Replier:  replier,
	}))
	t.Cleanup(backend.Close)

	client, err := completion.NewClient(backend.URL + "/api/chat")
	require.NoError(t, err)

	chatSvc := mustService(t, client)
	front := httptest.NewServer(NewRouter(Deps{
		Personas:       persona.NewMemoryStore(persona.Seed()),
		Chat:           chatSvc,
		AllowedOrigins: []string{"https://portfolio.dev"},
	}))
	t.Cleanup(front.Close)
	return front, chatSvc
}

func mustService(t *testing.T, c completion.Completer) *chatservice.Service {
	t.Helper()
	svc, err := chatservice.NewService(c, persona.NewMemoryStore(persona.Seed()), nil)
	require.NoError(t, err)
	return svc
}

type submitResult struct {
	Accepted bool `json:"accepted"`
	State    struct {
		Messages []struct {
			Text  string `json:"text"`
			IsBot bool   `json:"isBot"`
		} `json:"messages"`
	} `json:"state"`
}

func submit(t *testing.T, server *httptest.Server, text string) submitResult {
	t.Helper()

	resp, err := http.Post(server.URL+"/api/sessions", "application/json", nil)
	require.NoError(t, err)
	var created struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	resp.Body.Close()

	resp, err = http.Post(server.URL+"/api/sessions/"+created.ID+"/submit", "application/json",
		strings.NewReader(`{"text":`+jsonString(text)+`}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got submitResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	return got
}

func jsonString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

func TestEndToEndReply(t *testing.T) {
	front, _ := newStack(t, echoReplier{})

	got := submit(t, front, "hello")
	require.True(t, got.Accepted)
	require.Len(t, got.State.Messages, 3)
	assert.Equal(t, "echo: hello", got.State.Messages[2].Text)
	assert.True(t, got.State.Messages[2].IsBot)
}

func TestEndToEndBackendErrorBecomesBotMessage(t *testing.T) {
	front, _ := newStack(t, failingReplier{})

	got := submit(t, front, "hello")
	require.True(t, got.Accepted)
	require.Len(t, got.State.Messages, 3)
	assert.Equal(t, "The assistant is unavailable right now. Please try again in a moment.", got.State.Messages[2].Text)
}

func TestHealthzAndCORS(t *testing.T) {
	front, _ := newStack(t, echoReplier{})

	req, err := http.NewRequest(http.MethodGet, front.URL+"/healthz", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://portfolio.dev")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "https://portfolio.dev", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestReplyEndpointAbsentWithoutReplier(t *testing.T) {
	front, _ := newStack(t, echoReplier{})

	resp, err := http.Post(front.URL+"/api/chat", "application/json", strings.NewReader(`{"message":"hi"}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestOriginChecker(t *testing.T) {
	check := originChecker([]string{"https://portfolio.dev"})

	req := httptest.NewRequest(http.MethodGet, "http://api.local/api/ws/x", nil)
	req.Header.Set("Origin", "https://portfolio.dev")
	assert.True(t, check(req))

	req.Header.Set("Origin", "https://evil.dev")
	assert.False(t, check(req))

	req.Header.Set("Origin", "http://api.local")
	assert.True(t, check(req))
}
