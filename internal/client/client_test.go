package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"surge/internal/job"
)

func fakeServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func TestUpload(t *testing.T) {
	srv := fakeServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/upload-adaptive", r.URL.Path)

		var req job.Request
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, job.Request{FileCount: 5, FileSizeMB: 2, FilePrefix: "x"}, req)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"mode":"adaptive","runId":"id","prefix":"x","totalFiles":5,"p95MsPerFile":12.5,"batches":[{"concurrency":8}]}`))
	})

	res, err := New(srv.URL+"/", time.Second).Upload(context.Background(), job.Request{FileCount: 5, FileSizeMB: 2, FilePrefix: "x"})
	require.NoError(t, err)
	assert.Equal(t, "adaptive", res.Mode)
	require.NotNil(t, res.Summary)
	assert.Equal(t, 5, res.TotalFiles)
	assert.Equal(t, 12.5, res.P95MsPerFile)
	assert.Equal(t, []int{8}, res.ConcurrencyPath())
}

func TestListAndDeleteAll(t *testing.T) {
	srv := fakeServer(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "p/", body["prefix"])

		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/list":
			w.Write([]byte(`{"items":[{"key":"p/a/","type":"folder"},{"key":"p/b.bin","size":3,"type":"file"}]}`))
		case "/delete-all":
			w.Write([]byte(`{"deleted":7}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
	c := New(srv.URL, time.Second)

	items, err := c.List(context.Background(), "p/")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "folder", items[0].Type)
	assert.Equal(t, int64(3), items[1].Size)

	n, err := c.DeleteAll(context.Background(), "p/")
	require.NoError(t, err)
	assert.Equal(t, 7, n)
}

func TestStatusError(t *testing.T) {
	srv := fakeServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"job: invalid request"}`))
	})

	_, err := New(srv.URL, time.Second).Upload(context.Background(), job.Request{})
	require.Error(t, err)

	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusBadRequest, se.Code)
	assert.Contains(t, se.Error(), "invalid request")
}

func TestConnectionError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := New(url, time.Second).List(context.Background(), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to connect")
}
