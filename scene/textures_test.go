package scene_test

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plus3/orrery/logging"
	"github.com/plus3/orrery/scene"
)

func pngBytes(t *testing.T, c color.Color) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 2))
	for x := 0; x < 4; x++ {
		for y := 0; y < 2; y++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestTextureLoader(t *testing.T) {
	red := pngBytes(t, color.RGBA{R: 255, A: 255})
	var hits atomic.Int32

	mux := http.NewServeMux()
	mux.HandleFunc("/red.png", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write(red)
	})
	mux.HandleFunc("/garbage.jpg", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not an image"))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	local := filepath.Join(t.TempDir(), "blue.png")
	require.NoError(t, os.WriteFile(local, pngBytes(t, color.RGBA{B: 255, A: 255}), 0o644))

	loader := scene.NewTextureLoader(logging.Noop(), scene.WithHTTPClient(srv.Client()), scene.WithWorkers(2))
	urls := []string{
		srv.URL + "/red.png",
		srv.URL + "/missing.png",
		srv.URL + "/garbage.jpg",
		local,
	}

	loaded := loader.Load(context.Background(), urls)
	assert.Equal(t, 2, loaded)

	img := loader.Get(srv.URL + "/red.png")
	require.NotNil(t, img)
	assert.Equal(t, image.Rect(0, 0, 4, 2), img.Bounds())
	r, _, _, _ := img.At(1, 1).RGBA()
	assert.Equal(t, uint32(0xffff), r)

	assert.NotNil(t, loader.Get(local))
	assert.Nil(t, loader.Get(srv.URL+"/missing.png"))
	assert.ErrorContains(t, loader.Err(srv.URL+"/missing.png"), "404")
	assert.ErrorContains(t, loader.Err(srv.URL+"/garbage.jpg"), "decode")
	assert.NoError(t, loader.Err(srv.URL+"/red.png"))

	assert.Zero(t, loader.Load(context.Background(), urls[:1]), "loaded textures are not fetched again")
	assert.Equal(t, int32(1), hits.Load())
}

func TestTextureLoaderCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	loader := scene.NewTextureLoader(logging.Noop(), scene.WithHTTPClient(srv.Client()))
	assert.Zero(t, loader.Load(ctx, []string{srv.URL + "/slow.jpg"}))
	assert.Error(t, loader.Err(srv.URL+"/slow.jpg"))
}
