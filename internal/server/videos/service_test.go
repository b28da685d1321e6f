package videos

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vidstash/internal/common"
	"vidstash/internal/logging"
	"vidstash/internal/server/providers"
)

// nopLogger discards everything; enrichment logging is not under test here.
type nopLogger struct{}

func (nopLogger) Debug(context.Context, string, ...any) {}
func (nopLogger) Info(context.Context, string, ...any)  {}
func (nopLogger) Warn(context.Context, string, ...any)  {}
func (nopLogger) Error(context.Context, string, ...any) {}
func (l nopLogger) With(...any) logging.Logger          { return l }

// memoryRepo is an in-memory Repository safe for the detached enrichment
// goroutine. inserted keeps a snapshot of every record as it looked at
// insert time, before enrichment touched it.
type memoryRepo struct {
	mu       sync.Mutex
	byID     map[string]*SavedVideo
	inserted []SavedVideo

	applyErr error
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{byID: map[string]*SavedVideo{}}
}

func (m *memoryRepo) Insert(_ context.Context, v *SavedVideo) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.byID {
		if existing.UserID == v.UserID && existing.URL == v.URL {
			return common.ErrDuplicateVideo
		}
	}
	cp := *v
	m.byID[v.ID] = &cp
	m.inserted = append(m.inserted, cp)
	return nil
}

func (m *memoryRepo) GetByID(_ context.Context, id string) (*SavedVideo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.byID[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	cp := *v
	return &cp, nil
}

func (m *memoryRepo) FindByUserAndURL(_ context.Context, userID, url string) (*SavedVideo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, v := range m.byID {
		if v.UserID == userID && v.URL == url {
			cp := *v
			return &cp, nil
		}
	}
	return nil, common.ErrNotFound
}

func (m *memoryRepo) ApplyEnrichment(_ context.Context, id string, upd EnrichmentUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.applyErr != nil {
		return m.applyErr
	}
	v, ok := m.byID[id]
	if !ok || v.MetaStatus != MetaPending {
		return common.ErrNotFound
	}
	v.Title = upd.Title
	v.Creator = upd.Creator
	v.Description = upd.Description
	v.DurationSeconds = upd.DurationSeconds
	v.PublishedAt = upd.PublishedAt
	v.ThumbnailURL = upd.ThumbnailURL
	v.ThumbnailSource = upd.ThumbnailSource
	v.MetaStatus = MetaReady
	v.MetaError = nil
	v.MetaCheckedAt = &upd.CheckedAt
	return nil
}

func (m *memoryRepo) MarkEnrichmentFailed(_ context.Context, id, cause string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.byID[id]
	if !ok || v.MetaStatus != MetaPending {
		return common.ErrNotFound
	}
	v.MetaStatus = MetaFailed
	v.MetaError = &cause
	return nil
}

// memoryBlob records uploads; PublicURL mirrors the S3 store's layout.
type memoryBlob struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
}

func newMemoryBlob() *memoryBlob {
	return &memoryBlob{objects: map[string][]byte{}, types: map[string]string{}}
}

func (b *memoryBlob) Upload(_ context.Context, key string, body []byte, contentType string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.objects[key] = body
	b.types[key] = contentType
	return nil
}

func (b *memoryBlob) PublicURL(key string) string {
	return "https://blobs.test/videos/" + key
}

// platformRewrite redirects every outbound request to the test server so
// the hardcoded platform hosts never leave the process.
type platformRewrite struct {
	target *url.URL
}

func (t platformRewrite) RoundTrip(req *http.Request) (*http.Response, error) {
	r := req.Clone(req.Context())
	r.URL.Scheme = t.target.Scheme
	r.URL.Host = t.target.Host
	return http.DefaultTransport.RoundTrip(r)
}

func testRegistry(t *testing.T, server *httptest.Server) *providers.Registry {
	t.Helper()
	target, err := url.Parse(server.URL)
	require.NoError(t, err)
	return providers.NewRegistry(providers.Options{
		Client: &http.Client{Transport: platformRewrite{target: target}},
	})
}

// offlineRegistry returns a registry whose every fetch fails fast.
func offlineRegistry() *providers.Registry {
	return providers.NewRegistry(providers.Options{
		Client: &http.Client{Transport: http.RoundTripper(roundTripperFunc(func(*http.Request) (*http.Response, error) {
			return nil, errors.New("network disabled")
		}))},
	})
}

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func TestSaveVideoLink_UnsupportedPlatform(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, offlineRegistry(), newMemoryBlob(), nopLogger{}, Config{})

	_, err := svc.SaveVideoLink(context.Background(), SaveRequest{
		URL:        "https://vimeo.com/12345",
		UserID:     "user-1",
		CategoryID: "cat-1",
	})

	assert.ErrorIs(t, err, common.ErrUnsupportedPlatform)
	assert.Empty(t, repo.inserted)
}

func TestSaveVideoLink_UnparseableURL(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, offlineRegistry(), newMemoryBlob(), nopLogger{}, Config{})

	// Allowed host, but no recognizable video path.
	_, err := svc.SaveVideoLink(context.Background(), SaveRequest{
		URL:        "https://www.youtube.com/feed/subscriptions",
		UserID:     "user-1",
		CategoryID: "cat-1",
	})

	assert.ErrorIs(t, err, common.ErrCannotParseURL)
	assert.Empty(t, repo.inserted)
}

func TestSaveVideoLink_DuplicateAcrossURLVariants(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, offlineRegistry(), newMemoryBlob(), nopLogger{}, Config{})
	defer svc.Wait()

	first, err := svc.SaveVideoLink(context.Background(), SaveRequest{
		URL:        "https://youtu.be/dQw4w9WgXcQ",
		UserID:     "user-1",
		CategoryID: "cat-1",
	})
	require.NoError(t, err)
	require.NotEmpty(t, first.VideoID)

	// Different raw shape, same canonical URL.
	_, err = svc.SaveVideoLink(context.Background(), SaveRequest{
		URL:        "https://www.youtube.com/watch?v=dQw4w9WgXcQ&feature=share",
		UserID:     "user-1",
		CategoryID: "cat-2",
	})
	assert.ErrorIs(t, err, common.ErrDuplicateVideo)

	// A different user saving the same video is not a duplicate.
	_, err = svc.SaveVideoLink(context.Background(), SaveRequest{
		URL:        "https://youtu.be/dQw4w9WgXcQ",
		UserID:     "user-2",
		CategoryID: "cat-1",
	})
	assert.NoError(t, err)
}

func TestSaveVideoLink_EnrichmentFlow(t *testing.T) {
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/oembed":
			fmt.Fprintf(w, `{"title":"Never Gonna Give You Up","author_name":"Rick Astley","thumbnail_url":"%s/thumb.jpg"}`, server.URL)
		case "/thumb.jpg":
			w.Header().Set("Content-Type", "image/jpeg")
			w.Write([]byte("jpegbytes"))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	repo := newMemoryRepo()
	blob := newMemoryBlob()
	svc := NewService(repo, testRegistry(t, server), blob, nopLogger{}, Config{})

	result, err := svc.SaveVideoLink(context.Background(), SaveRequest{
		URL:        "https://youtu.be/dQw4w9WgXcQ",
		UserID:     "user-1",
		CategoryID: "cat-1",
	})
	require.NoError(t, err)
	assert.Equal(t, providers.PlatformYouTube, result.Platform)

	// The fast-ack insert is a placeholder: generic title, no thumbnail,
	// pending status. inserted[0] is the record as persisted before the
	// background worker ran.
	require.Len(t, repo.inserted, 1)
	placeholder := repo.inserted[0]
	assert.Equal(t, "YouTube Video", placeholder.Title)
	assert.Equal(t, "https://www.youtube.com/watch?v=dQw4w9WgXcQ", placeholder.URL)
	assert.Equal(t, MetaPending, placeholder.MetaStatus)
	assert.Equal(t, ThumbnailNone, placeholder.ThumbnailSource)

	svc.Wait()

	v, err := svc.GetVideo(context.Background(), result.VideoID)
	require.NoError(t, err)
	assert.Equal(t, MetaReady, v.MetaStatus)
	assert.Equal(t, "Never Gonna Give You Up", v.Title)
	require.NotNil(t, v.Creator)
	assert.Equal(t, "Rick Astley", *v.Creator)
	assert.Equal(t, ThumbnailDirect, v.ThumbnailSource)
	require.NotNil(t, v.ThumbnailURL)

	key := fmt.Sprintf("youtube/%s.jpg", result.VideoID)
	assert.Equal(t, "https://blobs.test/videos/"+key, *v.ThumbnailURL)
	assert.Equal(t, []byte("jpegbytes"), blob.objects[key])
	assert.Equal(t, "image/jpeg", blob.types[key])
	require.NotNil(t, v.MetaCheckedAt)
}

func TestSaveVideoLink_NetworkDownStillReady(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, offlineRegistry(), newMemoryBlob(), nopLogger{}, Config{})

	result, err := svc.SaveVideoLink(context.Background(), SaveRequest{
		URL:        "https://youtu.be/dQw4w9WgXcQ",
		UserID:     "user-1",
		CategoryID: "cat-1",
	})
	require.NoError(t, err)

	svc.Wait()

	// Extraction failures are not record failures: the record keeps the
	// generic title and reaches ready.
	v, err := svc.GetVideo(context.Background(), result.VideoID)
	require.NoError(t, err)
	assert.Equal(t, MetaReady, v.MetaStatus)
	assert.Equal(t, "YouTube Video", v.Title)
	assert.Nil(t, v.Creator)
	assert.Nil(t, v.ThumbnailURL)
	assert.Equal(t, ThumbnailNone, v.ThumbnailSource)
}

func TestEnrichment_RejectsNonImageThumbnail(t *testing.T) {
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/oembed":
			fmt.Fprintf(w, `{"title":"A Video","thumbnail_url":"%s/thumb"}`, server.URL)
		case "/thumb":
			w.Header().Set("Content-Type", "text/html")
			fmt.Fprint(w, "<html>captcha wall</html>")
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	repo := newMemoryRepo()
	blob := newMemoryBlob()
	svc := NewService(repo, testRegistry(t, server), blob, nopLogger{}, Config{})

	result, err := svc.SaveVideoLink(context.Background(), SaveRequest{
		URL:        "https://youtu.be/dQw4w9WgXcQ",
		UserID:     "user-1",
		CategoryID: "cat-1",
	})
	require.NoError(t, err)

	svc.Wait()

	v, err := svc.GetVideo(context.Background(), result.VideoID)
	require.NoError(t, err)
	assert.Equal(t, MetaReady, v.MetaStatus)
	assert.Equal(t, "A Video", v.Title)
	assert.Nil(t, v.ThumbnailURL)
	assert.Equal(t, ThumbnailNone, v.ThumbnailSource)
	assert.Empty(t, blob.objects)
}

func TestEnrichment_RejectsOversizedThumbnail(t *testing.T) {
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/oembed":
			fmt.Fprintf(w, `{"title":"A Video","thumbnail_url":"%s/thumb.jpg"}`, server.URL)
		case "/thumb.jpg":
			w.Header().Set("Content-Type", "image/jpeg")
			w.Write(make([]byte, 256))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	repo := newMemoryRepo()
	blob := newMemoryBlob()
	svc := NewService(repo, testRegistry(t, server), blob, nopLogger{}, Config{
		ThumbnailMaxBytes: 64,
	})

	result, err := svc.SaveVideoLink(context.Background(), SaveRequest{
		URL:        "https://youtu.be/dQw4w9WgXcQ",
		UserID:     "user-1",
		CategoryID: "cat-1",
	})
	require.NoError(t, err)

	svc.Wait()

	v, err := svc.GetVideo(context.Background(), result.VideoID)
	require.NoError(t, err)
	assert.Equal(t, MetaReady, v.MetaStatus)
	assert.Equal(t, ThumbnailNone, v.ThumbnailSource)
	assert.Empty(t, blob.objects)
}

func TestEnrichment_UpdateFailureMarksFailed(t *testing.T) {
	repo := newMemoryRepo()
	repo.applyErr = errors.New("db gone")
	svc := NewService(repo, offlineRegistry(), newMemoryBlob(), nopLogger{}, Config{})

	result, err := svc.SaveVideoLink(context.Background(), SaveRequest{
		URL:        "https://youtu.be/dQw4w9WgXcQ",
		UserID:     "user-1",
		CategoryID: "cat-1",
	})
	require.NoError(t, err)

	svc.Wait()

	v, err := svc.GetVideo(context.Background(), result.VideoID)
	require.NoError(t, err)
	assert.Equal(t, MetaFailed, v.MetaStatus)
	require.NotNil(t, v.MetaError)
	assert.Contains(t, *v.MetaError, "metadata update failed")
}

func TestSaveVideoLink_CarriesNoteAndReminder(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, offlineRegistry(), newMemoryBlob(), nopLogger{}, Config{})
	defer svc.Wait()

	note := "watch later with the team"
	reminder := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)

	_, err := svc.SaveVideoLink(context.Background(), SaveRequest{
		URL:        "https://www.loom.com/share/31a06ba6e5614a35b3b42ba5e34cd7b5",
		UserID:     "user-1",
		CategoryID: "cat-1",
		Note:       &note,
		ReminderAt: &reminder,
	})
	require.NoError(t, err)

	require.Len(t, repo.inserted, 1)
	saved := repo.inserted[0]
	assert.Equal(t, providers.PlatformLoom, saved.Platform)
	require.NotNil(t, saved.Note)
	assert.Equal(t, note, *saved.Note)
	require.NotNil(t, saved.ReminderAt)
	assert.True(t, saved.ReminderAt.Equal(reminder))
}
