package engine

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"manga4deck/internal/kavita"
	"manga4deck/pkg/database"
	"manga4deck/pkg/models"
)

// fakeVolume shapes one volume in the fake server's series detail.
type fakeVolume struct {
	ID        int
	ChapterID int
	Title     string
	Read      int
	Pages     int
}

// fakeKavita is an httptest stand-in for the Kavita API, recording
// image fetch counts and pushed progress.
type fakeKavita struct {
	t   *testing.T
	srv *httptest.Server

	mu          sync.Mutex
	rejectLogin bool
	volumes     map[int][]fakeVolume
	pageFetches map[string]int
	failPage    string // "chapterID/page" that returns 500
	pageDelay   time.Duration
	progress    []models.ProgressRecord
	logins      int
}

func newFakeKavita(t *testing.T) *fakeKavita {
	t.Helper()
	fk := &fakeKavita{
		t:           t,
		volumes:     make(map[int][]fakeVolume),
		pageFetches: make(map[string]int),
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/api/Account/login", fk.handleLogin)
	mux.HandleFunc("/api/library/libraries", fk.handleLibraries)
	mux.HandleFunc("/api/series/v2", fk.handleSeries)
	mux.HandleFunc("/api/series/series-detail", fk.handleSeriesDetail)
	mux.HandleFunc("/api/image/series-cover", fk.handleImage)
	mux.HandleFunc("/api/image/volume-cover", fk.handleImage)
	mux.HandleFunc("/api/reader/image", fk.handlePage)
	mux.HandleFunc("/api/reader/progress", fk.handleProgress)
	mux.HandleFunc("/api/reader/mark-volume-read", func(w http.ResponseWriter, r *http.Request) {})
	mux.HandleFunc("/api/library/scan-all", func(w http.ResponseWriter, r *http.Request) {})
	fk.srv = httptest.NewServer(mux)
	t.Cleanup(fk.srv.Close)
	return fk
}

func (fk *fakeKavita) host() string {
	return strings.TrimPrefix(fk.srv.URL, "http://")
}

func (fk *fakeKavita) handleLogin(w http.ResponseWriter, r *http.Request) {
	fk.mu.Lock()
	reject := fk.rejectLogin
	fk.logins++
	fk.mu.Unlock()

	if reject {
		http.Error(w, "bad credentials", http.StatusUnauthorized)
		return
	}
	json.NewEncoder(w).Encode(map[string]string{"token": "tok", "username": "deck"})
}

func (fk *fakeKavita) handleLibraries(w http.ResponseWriter, r *http.Request) {
	json.NewEncoder(w).Encode([]map[string]any{{"id": 1, "name": "Manga"}})
}

func (fk *fakeKavita) handleSeries(w http.ResponseWriter, r *http.Request) {
	json.NewEncoder(w).Encode([]map[string]any{
		{"id": 10, "name": "Berserk", "pagesRead": 20, "pages": 50},
	})
}

func (fk *fakeKavita) handleSeriesDetail(w http.ResponseWriter, r *http.Request) {
	seriesID, _ := strconv.Atoi(r.URL.Query().Get("seriesId"))

	fk.mu.Lock()
	vols := fk.volumes[seriesID]
	fk.mu.Unlock()

	out := make([]map[string]any, 0, len(vols))
	for _, v := range vols {
		out = append(out, map[string]any{
			"id": v.ID, "name": v.Title, "pagesRead": v.Read, "pages": v.Pages,
			"chapters": []map[string]any{{"id": v.ChapterID}},
		})
	}
	json.NewEncoder(w).Encode(map[string]any{"volumes": out})
}

func (fk *fakeKavita) handleImage(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte("cover"))
}

func (fk *fakeKavita) handlePage(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("chapterId") + "/" + r.URL.Query().Get("page")

	fk.mu.Lock()
	fk.pageFetches[key]++
	fail := fk.failPage == key
	delay := fk.pageDelay
	fk.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}
	if fail {
		http.Error(w, "page unavailable", http.StatusInternalServerError)
		return
	}
	w.Write([]byte("page-" + key))
}

func (fk *fakeKavita) handleProgress(w http.ResponseWriter, r *http.Request) {
	var body struct {
		SeriesID  int `json:"seriesId"`
		VolumeID  int `json:"volumeId"`
		ChapterID int `json:"chapterId"`
		PageNum   int `json:"pageNum"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	fk.mu.Lock()
	fk.progress = append(fk.progress, models.ProgressRecord{
		SeriesID: body.SeriesID, VolumeID: body.VolumeID,
		ChapterID: body.ChapterID, Page: body.PageNum,
	})
	fk.mu.Unlock()
}

func (fk *fakeKavita) fetchCount(chapterID, page int) int {
	fk.mu.Lock()
	defer fk.mu.Unlock()
	return fk.pageFetches[fmt.Sprintf("%d/%d", chapterID, page)]
}

func (fk *fakeKavita) pushedProgress() []models.ProgressRecord {
	fk.mu.Lock()
	defer fk.mu.Unlock()
	out := make([]models.ProgressRecord, len(fk.progress))
	copy(out, fk.progress)
	return out
}

func newTestEngine(t *testing.T, ip string) (*Engine, *sql.DB) {
	t.Helper()
	db, err := database.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.Migrate(db))

	e, err := New(db, Config{
		Settings: kavita.Settings{
			IP:       ip,
			Username: "deck",
			Password: "secret",
			APIKey:   "key-123",
		},
		CacheDir: t.TempDir(),
	}, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(e.Close)
	return e, db
}

// cacheAndWait enqueues a bulk-cache job and waits until the worker
// reports every expected volume completion.
func cacheAndWait(t *testing.T, e *Engine, seriesID int, title string, wantVolumes int) []string {
	t.Helper()
	done := make(chan string, 16)
	e.CacheSeries(seriesID, title, func(volTitle string) { done <- volTitle })

	var titles []string
	for i := 0; i < wantVolumes; i++ {
		select {
		case v := <-done:
			titles = append(titles, v)
		case <-time.After(5 * time.Second):
			t.Fatalf("timed out waiting for volume %d of series %d", i+1, seriesID)
		}
	}
	return titles
}

func TestStartupOnline(t *testing.T) {
	fk := newFakeKavita(t)
	e, _ := newTestEngine(t, fk.host())

	require.False(t, e.Offline())
	st := e.Status()
	require.True(t, st.Online)
	require.Equal(t, fk.host(), st.IP)
	require.Equal(t, "deck", st.LoggedAs)
}

func TestStartupOfflineWhenUnreachable(t *testing.T) {
	e, _ := newTestEngine(t, "127.0.0.1:1")

	require.True(t, e.Offline())

	series, err := e.Series(context.Background(), 1)
	require.NoError(t, err)
	require.Empty(t, series)

	cover, err := e.SeriesCover(context.Background(), 10)
	require.NoError(t, err)
	require.Equal(t, "", cover)
}

func TestPictureDownloadsAtMostOnce(t *testing.T) {
	fk := newFakeKavita(t)
	e, _ := newTestEngine(t, fk.host())
	ctx := context.Background()

	first, err := e.Picture(ctx, 99, 3)
	require.NoError(t, err)
	require.NotEqual(t, "", first)

	second, err := e.Picture(ctx, 99, 3)
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.Equal(t, 1, fk.fetchCount(99, 3))

	data, err := os.ReadFile(first)
	require.NoError(t, err)
	require.Equal(t, "page-99/3", string(data))
}

func TestCacheSeriesSkipsFullyReadVolumes(t *testing.T) {
	fk := newFakeKavita(t)
	fk.volumes[10] = []fakeVolume{
		{ID: 7, ChapterID: 99, Title: "Vol 1", Read: 30, Pages: 30}, // fully read
		{ID: 8, ChapterID: 100, Title: "Vol 2", Read: 1, Pages: 3},
	}
	e, _ := newTestEngine(t, fk.host())
	ctx := context.Background()

	titles := cacheAndWait(t, e, 10, "Berserk", 1)
	require.Equal(t, []string{"Vol 2"}, titles)

	// incomplete volume fully fetched, completed volume untouched
	for page := 1; page <= 3; page++ {
		require.Equal(t, 1, fk.fetchCount(100, page))
	}
	require.Equal(t, 0, fk.fetchCount(99, 1))

	cached, err := e.IsSeriesCached(ctx, 10)
	require.NoError(t, err)
	require.True(t, cached)

	cached, err = e.IsVolumeCached(ctx, 8)
	require.NoError(t, err)
	require.True(t, cached)
}

func TestCacheSeriesIdempotent(t *testing.T) {
	fk := newFakeKavita(t)
	fk.volumes[10] = []fakeVolume{
		{ID: 8, ChapterID: 100, Title: "Vol 2", Read: 0, Pages: 2},
	}
	e, _ := newTestEngine(t, fk.host())
	ctx := context.Background()

	cacheAndWait(t, e, 10, "Berserk", 1)
	cacheAndWait(t, e, 10, "Berserk", 1)

	// the second run re-walks the volume but downloads nothing
	require.Equal(t, 1, fk.fetchCount(100, 1))
	require.Equal(t, 1, fk.fetchCount(100, 2))

	vols, err := e.store.VolumesBySeries(ctx, 10)
	require.NoError(t, err)
	require.Len(t, vols, 1)

	series, err := e.store.ListSeries(ctx)
	require.NoError(t, err)
	require.Len(t, series, 1)
}

func TestWorkerAbortsJobAndDrainsNext(t *testing.T) {
	fk := newFakeKavita(t)
	fk.failPage = "100/2"
	fk.volumes[10] = []fakeVolume{
		{ID: 8, ChapterID: 100, Title: "Vol 2", Read: 0, Pages: 3},
	}
	fk.volumes[11] = []fakeVolume{
		{ID: 9, ChapterID: 200, Title: "Other Vol", Read: 0, Pages: 1},
	}
	e, _ := newTestEngine(t, fk.host())
	ctx := context.Background()

	e.CacheSeries(10, "Broken", nil)
	titles := cacheAndWait(t, e, 11, "Healthy", 1)
	require.Equal(t, []string{"Other Vol"}, titles)

	// the failed job kept its partial progress: series row yes,
	// volume row no, page 3 never fetched
	cached, err := e.IsSeriesCached(ctx, 10)
	require.NoError(t, err)
	require.True(t, cached)

	cached, err = e.IsVolumeCached(ctx, 8)
	require.NoError(t, err)
	require.False(t, cached)

	require.Equal(t, 1, fk.fetchCount(100, 1))
	require.Equal(t, 0, fk.fetchCount(100, 3))
}

func TestOfflineProgressCollapses(t *testing.T) {
	e, _ := newTestEngine(t, "127.0.0.1:1")
	ctx := context.Background()

	require.NoError(t, e.store.AddSeries(ctx, 10, "Berserk", 0, 50))
	require.NoError(t, e.store.AddVolume(ctx, models.Volume{
		ID: 7, SeriesID: 10, ChapterID: 99, Title: "Vol 1", Pages: 30,
	}))

	rec := models.ProgressRecord{SeriesID: 10, VolumeID: 7, ChapterID: 99, Page: 3}
	require.NoError(t, e.SaveProgress(ctx, rec))
	rec.Page = 7
	require.NoError(t, e.SaveProgress(ctx, rec))

	pending, err := e.store.PendingProgress(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.Equal(t, 7, pending[0].Page)

	// mirrored into the cached counters
	vols, err := e.store.VolumesBySeries(ctx, 10)
	require.NoError(t, err)
	require.Equal(t, 7, vols[0].Read)
}

func TestReconnectReplaysOutboxInOrder(t *testing.T) {
	fk := newFakeKavita(t)
	e, _ := newTestEngine(t, "127.0.0.1:1")
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		require.NoError(t, e.SaveProgress(ctx, models.ProgressRecord{
			SeriesID: 10, VolumeID: i, ChapterID: 100 + i, Page: i * 5,
		}))
	}

	require.NoError(t, e.UpdateServerSettings(ctx, SettingsUpdate{IP: fk.host()}))
	require.False(t, e.Offline())

	pushed := fk.pushedProgress()
	require.Len(t, pushed, 3)
	for i, rec := range pushed {
		require.Equal(t, 100+i+1, rec.ChapterID)
		require.Equal(t, (i+1)*5, rec.Page)
	}

	pending, err := e.store.PendingProgress(ctx)
	require.NoError(t, err)
	require.Empty(t, pending)
}

func TestSettingsUpdateRollsBackOnFailure(t *testing.T) {
	fk := newFakeKavita(t)
	e, _ := newTestEngine(t, fk.host())
	ctx := context.Background()

	before := e.Status()

	err := e.UpdateServerSettings(ctx, SettingsUpdate{IP: "127.0.0.1:1", Username: "intruder"})
	require.Error(t, err)

	after := e.Status()
	require.Equal(t, before.Online, after.Online)
	require.Equal(t, before.IP, after.IP)
	require.Equal(t, before.LoggedAs, after.LoggedAs)

	// durable settings untouched
	ip, err := e.store.GetSetting(ctx, "server_ip")
	require.NoError(t, err)
	require.Equal(t, fk.host(), ip)

	user, err := e.store.GetSetting(ctx, "username")
	require.NoError(t, err)
	require.Equal(t, "deck", user)
}

func TestSettingsUpdateRejectedCredentials(t *testing.T) {
	fk := newFakeKavita(t)
	e, _ := newTestEngine(t, fk.host())

	fk.mu.Lock()
	fk.rejectLogin = true
	fk.mu.Unlock()

	err := e.UpdateServerSettings(context.Background(), SettingsUpdate{Password: "wrong"})

	var authErr *kavita.AuthError
	require.ErrorAs(t, err, &authErr)
	require.False(t, e.Offline())
}

func TestClearCacheLeavesNoStaleData(t *testing.T) {
	fk := newFakeKavita(t)
	fk.volumes[10] = []fakeVolume{
		{ID: 8, ChapterID: 100, Title: "Vol 2", Read: 0, Pages: 2},
	}
	e, _ := newTestEngine(t, fk.host())
	ctx := context.Background()

	cacheAndWait(t, e, 10, "Berserk", 1)

	require.NoError(t, e.ClearCache(ctx))

	cached, err := e.IsSeriesCached(ctx, 10)
	require.NoError(t, err)
	require.False(t, cached)

	entries, err := os.ReadDir(e.files.Path())
	require.NoError(t, err)
	require.Empty(t, entries)

	// once offline, nothing resurrects
	e.mu.Lock()
	e.offline = true
	e.mu.Unlock()

	series, err := e.Series(ctx, 1)
	require.NoError(t, err)
	require.Empty(t, series)
}

func TestCloseInterruptsBulkCaching(t *testing.T) {
	fk := newFakeKavita(t)
	fk.pageDelay = 20 * time.Millisecond
	fk.volumes[10] = []fakeVolume{
		{ID: 8, ChapterID: 100, Title: "Vol 2", Read: 0, Pages: 500},
	}

	db, err := database.OpenMemory()
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, database.Migrate(db))

	e, err := New(db, Config{
		Settings: kavita.Settings{IP: fk.host(), Username: "deck", Password: "secret", APIKey: "k"},
		CacheDir: t.TempDir(),
	}, zerolog.Nop())
	require.NoError(t, err)

	e.CacheSeries(10, "Long", nil)
	require.Eventually(t, func() bool {
		return fk.fetchCount(100, 1) == 1
	}, 5*time.Second, 10*time.Millisecond)

	start := time.Now()
	e.Close()
	require.Less(t, time.Since(start), 3*time.Second)

	fk.mu.Lock()
	fetched := len(fk.pageFetches)
	fk.mu.Unlock()
	require.Less(t, fetched, 500)
}

func TestLibraryPersistsForOffline(t *testing.T) {
	fk := newFakeKavita(t)
	e, _ := newTestEngine(t, fk.host())
	ctx := context.Background()

	libs, err := e.Library(ctx)
	require.NoError(t, err)
	require.Len(t, libs, 1)

	e.mu.Lock()
	e.offline = true
	e.mu.Unlock()

	libs, err = e.Library(ctx)
	require.NoError(t, err)
	require.Len(t, libs, 1)
	require.Equal(t, "Manga", libs[0].Title)
}
