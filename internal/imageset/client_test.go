package imageset

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func imageService(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/images/7":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{
				"id": 7,
				"variants": [
					{"image": "https://img.test/7-small.jpg"},
					{"image": "https://img.test/7-medium.jpg"},
					{"image": "https://img.test/7-large.jpg"}
				]
			}`))
		case "/images/404":
			w.WriteHeader(http.StatusNotFound)
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestGetReturnsVariantURLs(t *testing.T) {
	srv := imageService(t)
	c := New(srv.URL, nil)

	set, err := c.Get(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, 7, set.ID)
	assert.Equal(t, "https://img.test/7-small.jpg", set.URLSmall())
	assert.Equal(t, "https://img.test/7-medium.jpg", set.URLMedium())
	assert.Equal(t, "https://img.test/7-large.jpg", set.URLLarge())
}

func TestGetUnknownImage(t *testing.T) {
	srv := imageService(t)
	c := New(srv.URL, nil)

	_, err := c.Get(context.Background(), 404)
	assert.ErrorIs(t, err, ErrImageNotFound)
}

func TestExists(t *testing.T) {
	srv := imageService(t)
	c := New(srv.URL, nil)

	ok, err := c.Exists(context.Background(), 7)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.Exists(context.Background(), 404)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGetSurfacesServerErrors(t *testing.T) {
	srv := imageService(t)
	c := New(srv.URL, nil)

	_, err := c.Get(context.Background(), 500)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrImageNotFound)
}

func TestVariantFallsBackToEmptyString(t *testing.T) {
	set := &ImageSet{ID: 1, Variants: []ImageVariant{{Image: "https://img.test/only.jpg"}}}
	assert.Equal(t, "https://img.test/only.jpg", set.URLSmall())
	assert.Equal(t, "", set.URLMedium())
	assert.Equal(t, "", set.URLLarge())
}
