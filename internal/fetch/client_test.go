package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastClient() *Client {
	return NewClient(time.Second, WithRetryDelay(10*time.Millisecond))
}

func TestGetJSON_MergesParamsAndHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "1", r.URL.Query().Get("a"))
		assert.Equal(t, "two words", r.URL.Query().Get("b"))
		assert.Equal(t, "Token k", r.Header.Get("Authorization"))
		assert.Contains(t, r.Header.Get("User-Agent"), "zenstory")
		w.Write([]byte(`{"name":"Vega"}`))
	}))
	defer srv.Close()

	var out struct{ Name string }
	err := fastClient().GetJSON(context.Background(), srv.URL+"?a=1", url.Values{"b": {"two words"}}, map[string]string{"Authorization": "Token k"}, &out)
	require.NoError(t, err)
	assert.Equal(t, "Vega", out.Name)
}

func TestGet_RetriesOnceOnServerError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	resp, err := fastClient().Get(context.Background(), srv.URL, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "ok", string(resp.Body))
	assert.Equal(t, int32(2), calls.Load())
}

func TestGet_GivesUpAfterSecondFailure(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := fastClient().Get(context.Background(), srv.URL, nil, nil)
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusServiceUnavailable, se.Code)
	assert.Equal(t, int32(2), calls.Load())
}

func TestGet_NotFoundIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.NotFound(w, r)
	}))
	defer srv.Close()

	_, err := fastClient().Get(context.Background(), srv.URL, nil, nil)
	assert.True(t, IsNotFound(err))
	assert.Equal(t, int32(1), calls.Load())
}

func TestGet_ReportsFinalURLAfterRedirect(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/start", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/image.jpg", http.StatusFound)
	})
	mux.HandleFunc("/image.jpg", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		w.Write([]byte{0xff, 0xd8})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	resp, err := fastClient().Get(context.Background(), srv.URL+"/start", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/image.jpg", resp.URL)
	assert.Equal(t, "image/jpeg", resp.ContentType())
}

func TestHead(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodHead, r.Method)
		if r.URL.Path == "/missing" {
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	code, err := fastClient().Head(context.Background(), srv.URL+"/ok", time.Second)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, code)

	code, err = fastClient().Head(context.Background(), srv.URL+"/missing", time.Second)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, code)
}
