package notify_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viniausta/repasse-medico/internal/notify"
)

func TestSend(t *testing.T) {
	var got map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(body, &got))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
	}))
	defer srv.Close()

	c := notify.NewCliq(srv.URL)
	require.NoError(t, c.Send("processamento concluído", "Repasse", "#00ff00"))

	assert.Equal(t, "processamento concluído", got["text"])
	card := got["card"].(map[string]interface{})
	assert.Equal(t, "Repasse", card["title"])
	assert.Equal(t, "#00ff00", card["theme"])
}

func TestSendWithoutCard(t *testing.T) {
	var got map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &got))
	}))
	defer srv.Close()

	c := notify.NewCliq(srv.URL)
	require.NoError(t, c.Send("apenas texto", "", ""))
	_, hasCard := got["card"]
	assert.False(t, hasCard)
}

func TestSendNonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := notify.NewCliq(srv.URL)
	assert.Error(t, c.Send("mensagem", "", ""))
}

func TestDisabledNotifierIsNoOp(t *testing.T) {
	c := notify.NewCliq("")
	assert.NoError(t, c.NotifyError("sem webhook", map[string]string{"erro": "x"}))
}

func TestNotifyErrorFormatsDetails(t *testing.T) {
	var got map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &got))
	}))
	defer srv.Close()

	c := notify.NewCliq(srv.URL)
	require.NoError(t, c.NotifyError("falha no envio", map[string]string{"repasse": "1001"}))

	text := got["text"].(string)
	assert.Contains(t, text, "ERRO")
	assert.Contains(t, text, "falha no envio")
	assert.Contains(t, text, "- repasse: 1001")
}
