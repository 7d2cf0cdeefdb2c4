package craiyon

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

type route struct {
	status int
	body   []byte
	err    error
}

type mockTransport struct {
	mu     sync.Mutex
	routes map[string]route
	calls  []string
	bodies [][]byte
}

func (m *mockTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, req.Method+" "+req.URL.String())
	if err := req.Context().Err(); err != nil {
		return nil, err
	}
	if req.Body != nil {
		body, _ := io.ReadAll(req.Body)
		m.bodies = append(m.bodies, body)
	}

	r, ok := m.routes[req.URL.String()]
	if !ok {
		r = route{status: http.StatusNotFound}
	}
	if r.err != nil {
		return nil, r.err
	}
	return &http.Response{
		StatusCode: r.status,
		Header:     make(http.Header),
		Body:       io.NopCloser(bytes.NewReader(r.body)),
		Request:    req,
	}, nil
}

func pngOfWidth(t require.TestingT, width int) []byte {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, width, 1))))
	return buf.Bytes()
}

// newService serves refs from the V3 endpoint. The image behind refs[i] is i+1 pixels wide.
func newService(t require.TestingT, refs ...string) *mockTransport {
	body, err := json.Marshal(Response{Images: append([]string{}, refs...)})
	require.NoError(t, err)

	m := &mockTransport{routes: map[string]route{
		V3.Endpoint(): {status: http.StatusOK, body: body},
	}}
	for i, ref := range refs {
		m.routes[ImageURL(ref)] = route{status: http.StatusOK, body: pngOfWidth(t, i+1)}
	}
	return m
}

func refsOf(n int) []string {
	refs := make([]string, n)
	for i := range refs {
		refs[i] = fmt.Sprintf("img-%d.png", i)
	}
	return refs
}

func widths(images []image.Image) []int {
	out := make([]int, len(images))
	for i, img := range images {
		out[i] = img.Bounds().Dx()
	}
	return out
}

func TestGenerateExactCount(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		count := rapid.IntRange(1, MaxImages).Draw(t, "count")
		transport := newService(t, refsOf(count)...)
		model := New().WithHTTPClient(&http.Client{Transport: transport})

		images, err := model.Generate(context.Background(), "kitten", "", count)
		require.NoError(t, err)
		require.Len(t, images, count)
		for i, w := range widths(images) {
			assert.Equal(t, i+1, w)
		}
		assert.Len(t, transport.calls, count+1)
	})
}

func TestGenerateTruncatesToCount(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		count := rapid.IntRange(1, MaxImages).Draw(t, "count")
		returned := rapid.IntRange(0, MaxImages+3).Draw(t, "returned")
		transport := newService(t, refsOf(returned)...)
		model := New().WithHTTPClient(&http.Client{Transport: transport})

		images, err := model.Generate(context.Background(), "kitten", "", count)
		require.NoError(t, err)
		want := min(count, returned)
		assert.Len(t, images, want)
		assert.Len(t, transport.calls, want+1)
	})
}

func TestGenerateFewerThanRequested(t *testing.T) {
	transport := newService(t, "a", "b", "c")
	model := New().WithHTTPClient(&http.Client{Transport: transport})

	images, err := model.Generate(context.Background(), "kitten", "", 5)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, widths(images))
}

func TestGenerateInvalidCount(t *testing.T) {
	for _, count := range []int{-1, 0, 10, 100} {
		t.Run(fmt.Sprint(count), func(t *testing.T) {
			transport := newService(t, refsOf(9)...)
			model := New().WithHTTPClient(&http.Client{Transport: transport})

			images, err := model.Generate(context.Background(), "kitten", "", count)
			assert.ErrorIs(t, err, ErrInvalidArgument)
			assert.Nil(t, images)
			assert.Empty(t, transport.calls)
		})
	}
}

func TestGenerateV1Unsupported(t *testing.T) {
	for _, count := range []int{0, 1, 9, 10} {
		t.Run(fmt.Sprint(count), func(t *testing.T) {
			transport := newService(t, refsOf(9)...)
			model := From(Photo, V1).WithHTTPClient(&http.Client{Transport: transport})

			images, err := model.Generate(context.Background(), "kitten", "blurry", count)
			assert.ErrorIs(t, err, ErrUnsupportedVersion)
			assert.Nil(t, images)
			assert.Empty(t, transport.calls)
		})
	}
}

func TestGenerateImageFailureDiscardsPartial(t *testing.T) {
	tests := []struct {
		name  string
		route route
		want  error
	}{
		{"status", route{status: http.StatusInternalServerError}, ErrNetwork},
		{"transport", route{err: errors.New("connection reset")}, ErrNetwork},
		{"undecodable", route{status: http.StatusOK, body: []byte("definitely not an image")}, ErrDecode},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			transport := newService(t, "a", "b", "c")
			transport.routes[ImageURL("b")] = tt.route
			model := New().WithHTTPClient(&http.Client{Transport: transport})

			images, err := model.Generate(context.Background(), "kitten", "", 3)
			assert.ErrorIs(t, err, tt.want)
			assert.Nil(t, images)
			assert.Equal(t, []string{
				"POST " + V3.Endpoint(),
				"GET " + ImageURL("a"),
				"GET " + ImageURL("b"),
			}, transport.calls)
		})
	}
}

func TestGenerateRequestFailure(t *testing.T) {
	tests := []struct {
		name  string
		route route
		want  error
	}{
		{"status", route{status: http.StatusServiceUnavailable, body: []byte("busy")}, ErrNetwork},
		{"transport", route{err: errors.New("connection refused")}, ErrNetwork},
		{"malformed", route{status: http.StatusOK, body: []byte(`{"images": [`)}, ErrDecode},
		{"wrong shape", route{status: http.StatusOK, body: []byte(`{"images": "abc"}`)}, ErrDecode},
		{"empty object", route{status: http.StatusOK, body: []byte(`{}`)}, ErrDecode},
		{"null", route{status: http.StatusOK, body: []byte(`null`)}, ErrDecode},
		{"null images", route{status: http.StatusOK, body: []byte(`{"images": null}`)}, ErrDecode},
		{"error body", route{status: http.StatusOK, body: []byte(`{"detail": "rate limited"}`)}, ErrDecode},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			transport := newService(t, "a")
			transport.routes[V3.Endpoint()] = tt.route
			model := New().WithHTTPClient(&http.Client{Transport: transport})

			images, err := model.Generate(context.Background(), "kitten", "", 1)
			assert.ErrorIs(t, err, tt.want)
			assert.Nil(t, images)
			assert.Len(t, transport.calls, 1)
		})
	}
}

func TestGenerateEmptyImageList(t *testing.T) {
	transport := newService(t)
	model := New().WithHTTPClient(&http.Client{Transport: transport})

	images, err := model.Generate(context.Background(), "kitten", "", 3)
	require.NoError(t, err)
	assert.Empty(t, images)
	assert.Len(t, transport.calls, 1)
}

func TestGenerateDecodesWebP(t *testing.T) {
	data, err := os.ReadFile(filepath.Join("testdata", "red.webp"))
	require.NoError(t, err)

	transport := newService(t, "red.webp")
	transport.routes[ImageURL("red.webp")] = route{status: http.StatusOK, body: data}
	model := New().WithHTTPClient(&http.Client{Transport: transport})

	images, err := model.Generate(context.Background(), "kitten", "", 1)
	require.NoError(t, err)
	require.Len(t, images, 1)
	assert.Equal(t, image.Rect(0, 0, 3, 2), images[0].Bounds())

	r, g, b, a := images[0].At(1, 1).RGBA()
	assert.Equal(t, []uint32{0xffff, 0, 0, 0xffff}, []uint32{r, g, b, a})
}

func TestGenerateFromPrompt(t *testing.T) {
	transport := newService(t, "abc123", "def456", "ghi789")
	model := From(Photo, V3).WithHTTPClient(&http.Client{Transport: transport})

	images, err := model.GenerateFromPrompt(context.Background(), "a red fox", 2)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, widths(images))
	assert.Equal(t, []string{
		"POST https://api.craiyon.com/v3",
		"GET https://img.craiyon.com/abc123",
		"GET https://img.craiyon.com/def456",
	}, transport.calls)

	require.NotEmpty(t, transport.bodies)
	assert.JSONEq(t, `{
		"prompt": "a red fox",
		"negative_prompt": "",
		"model": "photo",
		"version": "35s5hfwn9n78gb06",
		"token": null
	}`, string(transport.bodies[0]))
}

func TestGeneratePassesToken(t *testing.T) {
	transport := newService(t, "a")
	model := New().WithToken("secret").WithHTTPClient(&http.Client{Transport: transport})

	_, err := model.Generate(context.Background(), "kitten", "dog", 1)
	require.NoError(t, err)

	var body map[string]any
	require.NoError(t, json.Unmarshal(transport.bodies[0], &body))
	assert.Equal(t, "secret", body["token"])
	assert.Equal(t, "dog", body["negative_prompt"])
}

func TestGenerateConcurrent(t *testing.T) {
	transport := newService(t, refsOf(4)...)
	model := New().WithHTTPClient(&http.Client{Transport: transport})

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = model.Generate(context.Background(), "kitten", "", 4)
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
	assert.Len(t, transport.calls, 8*5)
}

func TestGenerateCancelled(t *testing.T) {
	transport := newService(t, "a")
	model := New().WithHTTPClient(&http.Client{Transport: transport})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := model.Generate(ctx, "kitten", "", 1)
	assert.ErrorIs(t, err, ErrNetwork)
	assert.ErrorIs(t, err, context.Canceled)
}
