package httpclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noopLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

func TestClient_GetJSON(t *testing.T) {
	t.Run("encodes params and decodes body", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "bar", r.URL.Query().Get("foo"))
			assert.Equal(t, "application/json", r.Header.Get("Accept"))
			_, _ = w.Write([]byte(`{"value":42}`))
		}))
		defer srv.Close()

		client := NewClient(DefaultConfig(), noopLogger())

		var out struct {
			Value int `json:"value"`
		}
		err := client.GetJSON(context.Background(), srv.URL, url.Values{"foo": {"bar"}}, &out)
		require.NoError(t, err)
		assert.Equal(t, 42, out.Value)
	})

	t.Run("non-2xx is an error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer srv.Close()

		client := NewClient(DefaultConfig(), noopLogger())
		err := client.GetJSON(context.Background(), srv.URL, nil, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "502")
	})

	t.Run("malformed body is an error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{not json`))
		}))
		defer srv.Close()

		client := NewClient(DefaultConfig(), noopLogger())
		var out map[string]any
		assert.Error(t, client.GetJSON(context.Background(), srv.URL, nil, &out))
	})
}

func TestClient_PostJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	client := NewClient(DefaultConfig(), noopLogger())

	var out struct {
		OK bool `json:"ok"`
	}
	err := client.PostJSON(context.Background(), srv.URL, map[string]string{"text": "x"}, &out)
	require.NoError(t, err)
	assert.True(t, out.OK)
}
