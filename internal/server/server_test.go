package server

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xaenox/intentbot/internal/models"
	"go.uber.org/zap"
)

type fakeClassifier struct {
	calls []string
	panic bool
}

func (f *fakeClassifier) Classify(_ context.Context, raw string) models.Classification {
	if f.panic {
		panic("boom")
	}
	f.calls = append(f.calls, raw)
	return models.Classification{
		Response:       "Hi! How can I help?",
		NormalizedText: "hello",
		Tag:            "greeting",
		Confidence:     0.9,
	}
}

type fakeTags []string

func (f fakeTags) SearchTags(q string) []string {
	if q == "" {
		return f
	}
	var out []string
	for _, t := range f {
		if strings.Contains(t, q) {
			out = append(out, t)
		}
	}
	return out
}

func newTestServer(c Classifier) http.Handler {
	return New(c, fakeTags{"greeting", "goodbye"}, zap.NewNop()).Handler([]string{"*"})
}

func TestHome(t *testing.T) {
	w := httptest.NewRecorder()
	newTestServer(&fakeClassifier{}).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Chatbot is running.", w.Body.String())
}

func TestChat(t *testing.T) {
	fc := &fakeClassifier{}
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`{"message": "helo"}`))
	newTestServer(fc).ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "Hi! How can I help?", body["response"])
	assert.Equal(t, "hello", body["corrected_input"])
	assert.Equal(t, "greeting", body["tag"])
	assert.Equal(t, []string{"helo"}, fc.calls)
}

func TestChat_InvalidInput(t *testing.T) {
	for _, payload := range []string{`{"message": ""}`, `{}`, `not json`} {
		fc := &fakeClassifier{}
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(payload))
		newTestServer(fc).ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code, payload)
		assert.JSONEq(t, `{"response": "Please provide a valid input."}`, w.Body.String())
		assert.Empty(t, fc.calls)
	}
}

func TestChat_WhitespaceIsClassified(t *testing.T) {
	fc := &fakeClassifier{}
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`{"message": "   "}`))
	newTestServer(fc).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"   "}, fc.calls)
}

func TestChat_WrongMethod(t *testing.T) {
	w := httptest.NewRecorder()
	newTestServer(&fakeClassifier{}).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/chat", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestChat_PanicIsRecovered(t *testing.T) {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`{"message": "hi"}`))
	newTestServer(&fakeClassifier{panic: true}).ServeHTTP(w, req)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestIntents(t *testing.T) {
	w := httptest.NewRecorder()
	newTestServer(&fakeClassifier{}).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/intents?q=good", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"intents": ["goodbye"]}`, w.Body.String())

	w = httptest.NewRecorder()
	newTestServer(&fakeClassifier{}).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/intents?q=zzz", nil))
	assert.JSONEq(t, `{"intents": []}`, w.Body.String())
}

func TestCORSPreflight(t *testing.T) {
	req := httptest.NewRequest(http.MethodOptions, "/api/chat", nil)
	req.Header.Set("Origin", "https://example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)

	w := httptest.NewRecorder()
	newTestServer(&fakeClassifier{}).ServeHTTP(w, req)

	assert.Less(t, w.Code, 300)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRun_StopsOnCancel(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := l.Addr().(*net.TCPAddr).Port
	require.NoError(t, l.Close())

	ctx, cancel := context.WithCancel(context.Background())
	s := New(&fakeClassifier{}, fakeTags{}, zap.NewNop())

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx, port, []string{"*"}) }()
	cancel()
	assert.NoError(t, <-done)
}
