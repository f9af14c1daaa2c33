package media

import (
	"context"
	"crypto/sha1"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := New("demo", "key", "secret", "gym/members")
	c.BaseURL = srv.URL
	c.now = func() time.Time { return time.Unix(1700000000, 0) }
	return c
}

func TestSign(t *testing.T) {
	c := New("demo", "key", "secret", "")
	got := c.sign(map[string]string{"timestamp": "1", "api_key": "key", "folder": "f", "public_id": ""})

	want := fmt.Sprintf("%x", sha1.Sum([]byte("folder=f&timestamp=1secret")))
	assert.Equal(t, want, got)
}

func TestUploadBytes(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/demo/image/upload", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "m1", r.FormValue("public_id"))
		assert.Equal(t, "true", r.FormValue("overwrite"))
		assert.Equal(t, "gym/members", r.FormValue("folder"))
		assert.Equal(t, "1700000000", r.FormValue("timestamp"))
		assert.NotEmpty(t, r.FormValue("signature"))

		f, hdr, err := r.FormFile("file")
		require.NoError(t, err)
		defer f.Close()
		data, _ := io.ReadAll(f)
		assert.Equal(t, "face.jpg", hdr.Filename)
		assert.Equal(t, []byte("jpegdata"), data)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"public_id":"gym/members/m1","secure_url":"https://res.example/m1.jpg","width":10}`))
	})

	res, err := c.UploadBytes(context.Background(), "m1", []byte("jpegdata"), "face.jpg")
	require.NoError(t, err)
	assert.Equal(t, "https://res.example/m1.jpg", res.SecureURL)
	assert.Equal(t, 10, res.Width)
}

func TestUploadBase64_ErrorStatus(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "data:image/png;base64,AAAA", r.FormValue("file"))
		http.Error(w, `{"error":{"message":"Invalid Signature"}}`, http.StatusUnauthorized)
	})

	_, err := c.UploadBase64(context.Background(), "m1", "data:image/png;base64,AAAA")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}
