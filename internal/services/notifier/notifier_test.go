package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/smtp"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNew(t *testing.T) {
	for _, method := range Methods() {
		n, err := New(method, Settings{})
		require.NoError(t, err, method)
		assert.NotNil(t, n)
	}

	_, err := New("pager", Settings{})
	assert.Error(t, err)
}

func TestConsole(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewConsole(&buf).Send(context.Background(), "BTC above 60000"))
	assert.Contains(t, buf.String(), "NOTIFICATION: BTC above 60000")
}

func TestTelegram(t *testing.T) {
	t.Run("posts the message", func(t *testing.T) {
		var gotPath, gotChat, gotText string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.NoError(t, r.ParseForm())
			gotPath = r.URL.Path
			gotChat = r.PostForm.Get("chat_id")
			gotText = r.PostForm.Get("text")
			w.WriteHeader(http.StatusOK)
		}))
		defer srv.Close()

		tg := NewTelegram("token123", "42")
		tg.baseURL = srv.URL
		require.NoError(t, tg.Send(context.Background(), "hello"))

		assert.Equal(t, "/bottoken123/sendMessage", gotPath)
		assert.Equal(t, "42", gotChat)
		assert.Equal(t, "hello", gotText)
	})

	t.Run("api error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"ok":false}`, http.StatusBadRequest)
		}))
		defer srv.Close()

		tg := NewTelegram("token123", "42")
		tg.baseURL = srv.URL
		err := tg.Send(context.Background(), "hello")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "400")
	})

	t.Run("not configured", func(t *testing.T) {
		err := NewTelegram("", "").Send(context.Background(), "hello")
		assert.ErrorIs(t, err, ErrNotConfigured)
	})
}

func TestDiscord(t *testing.T) {
	var payload struct {
		Embeds []struct {
			Description string `json:"description"`
		} `json:"embeds"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	require.NoError(t, NewDiscord(srv.URL).Send(context.Background(), "ETH below 3000"))
	require.Len(t, payload.Embeds, 1)
	assert.Equal(t, "ETH below 3000", payload.Embeds[0].Description)

	assert.ErrorIs(t, NewDiscord("").Send(context.Background(), "x"), ErrNotConfigured)
}

func TestEmail(t *testing.T) {
	var gotAddr string
	var gotTo []string
	var gotMsg []byte

	e := NewEmail("bot@example.com", "secret", "me@example.com", "", 0)
	e.sendMail = func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr = addr
		gotTo = to
		gotMsg = msg
		assert.Equal(t, "bot@example.com", from)
		return nil
	}

	require.NoError(t, e.Send(context.Background(), "BTC above 60000"))
	assert.Equal(t, "smtp.gmail.com:587", gotAddr)
	assert.Equal(t, []string{"me@example.com"}, gotTo)
	assert.Contains(t, string(gotMsg), "Subject: Crypto alert\r\n")
	assert.Contains(t, string(gotMsg), "\r\n\r\nBTC above 60000")

	assert.ErrorIs(t, NewEmail("", "", "", "", 0).Send(context.Background(), "x"), ErrNotConfigured)
}

type failingNotifier struct{ err error }

func (f failingNotifier) Send(context.Context, string) error { return f.err }

func TestManager_History(t *testing.T) {
	var buf bytes.Buffer
	m := NewManager(MethodConsole, NewConsole(&buf), zap.NewNop())

	for _, msg := range []string{"one", "two", "three"} {
		require.NoError(t, m.Send(context.Background(), msg))
	}

	h := m.History(2)
	require.Len(t, h, 2)
	assert.Equal(t, "two", h[0].Message)
	assert.Equal(t, "three", h[1].Message)
	assert.Equal(t, MethodConsole, h[1].Method)
	assert.Len(t, m.History(0), 3)
}

func TestManager_RecordsFailures(t *testing.T) {
	m := NewManager(MethodDiscord, failingNotifier{err: errors.New("webhook gone")}, nil)
	m.limit = 2

	for range 3 {
		assert.Error(t, m.Send(context.Background(), "msg"))
	}

	h := m.History(10)
	require.Len(t, h, 2)
	assert.Equal(t, "webhook gone", h[0].Err)
}
