package clients

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestHTTPClient_Get(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		w.Header().Set("X-Test", "yes")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`ok`))
	}))
	defer server.Close()

	client := NewHTTPClient()
	status, body, headers, err := client.Get(context.Background(), server.URL, nil)

	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", string(body))
	assert.Equal(t, "yes", headers.Get("X-Test"))
}

func TestHTTPClient_Post(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"title":"New Job Alert!"}`, string(body))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	client := NewHTTPClient()
	status, _, err := client.Post(context.Background(), server.URL, nil, []byte(`{"title":"New Job Alert!"}`))

	require.NoError(t, err)
	assert.Equal(t, http.StatusAccepted, status)
}

func TestHTTPClient_PostUnreachable(t *testing.T) {
	client := NewHTTPClient()
	_, _, err := client.Post(context.Background(), "http://127.0.0.1:0/push", nil, []byte(`{}`))
	assert.Error(t, err)
}

func TestHTTPClient_SetClient(t *testing.T) {
	ctrl := gomock.NewController(t)
	mock := NewMockHTTPClientI(ctrl)
	mock.EXPECT().Post(gomock.Any(), "http://push", gomock.Any(), []byte(`{}`)).Return(http.StatusOK, nil, nil)

	client := NewHTTPClient()
	client.SetClient(mock)
	status, _, err := client.Post(context.Background(), "http://push", nil, []byte(`{}`))

	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, status)
}
