package gallery

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldops/fieldview/internal/media"
)

// fakeOpener serves text bodies per path and counts requests.
type fakeOpener struct {
	mu     sync.Mutex
	status map[string]int
	opens  map[string]int
}

func newFakeOpener() *fakeOpener {
	return &fakeOpener{status: map[string]int{}, opens: map[string]int{}}
}

func (o *fakeOpener) Open(_ context.Context, path string) (*http.Response, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.opens[path]++
	status := http.StatusOK
	if code, ok := o.status[path]; ok {
		status = code
	}
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"text/plain"}},
		Body:       io.NopCloser(bytes.NewReader([]byte("body of " + path))),
	}, nil
}

func (o *fakeOpener) setStatus(path string, code int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.status[path] = code
}

func (o *fakeOpener) count(path string) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.opens[path]
}

func (o *fakeOpener) total() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	n := 0
	for _, c := range o.opens {
		n += c
	}
	return n
}

func newLoader() (*media.Loader, *fakeOpener) {
	opener := newFakeOpener()
	return media.NewLoader(opener, media.Options{}), opener
}

func refs(values ...string) []media.Ref {
	out := make([]media.Ref, len(values))
	for i, v := range values {
		out[i] = media.Ref(v)
	}
	return out
}

func loadAndApply(t *testing.T, g *Gallery, loader *media.Loader, reqs []Request) {
	t.Helper()
	for _, req := range reqs {
		g.Apply(Load(context.Background(), loader, req))
	}
}

func strPtr(s string) *string { return &s }

func TestNew_ClampsCursor(t *testing.T) {
	g := New(refs("a", "b", "c"), nil, 5, Options{})
	idx, ok := g.Cursor()
	require.True(t, ok)
	assert.Equal(t, 2, idx)

	g = New(refs("a", "b", "c"), nil, -3, Options{})
	idx, _ = g.Cursor()
	assert.Equal(t, 0, idx)
}

func TestEmptyGallery_NoFetchNoDisplay(t *testing.T) {
	loader, opener := newLoader()
	g := New(nil, nil, 0, Options{Thumbnails: true})

	_, ok := g.Cursor()
	assert.False(t, ok)
	reqs := g.Open()
	assert.Empty(t, reqs)
	loadAndApply(t, g, loader, reqs)
	assert.Equal(t, Idle, g.Active().State)
	assert.Zero(t, opener.total())
	assert.Empty(t, g.Next())
	assert.Empty(t, g.Previous())
	assert.False(t, g.RequestDelete())
}

func TestScenario_MixedAbsoluteAndRelative(t *testing.T) {
	loader, opener := newLoader()
	g := New(refs("/uploads/a.jpg", "https://cdn/x.jpg", "/uploads/c.jpg"), nil, 1, Options{})

	reqs := g.Open()
	require.Len(t, reqs, 1)
	loadAndApply(t, g, loader, reqs)
	active := g.Active()
	assert.Equal(t, Displayed, active.State)
	assert.Equal(t, "https://cdn/x.jpg", active.Resource.URL)
	assert.False(t, active.Resource.Owned())
	assert.Zero(t, opener.total())

	reqs = g.Previous()
	require.Len(t, reqs, 1)
	assert.Equal(t, media.Stats{}, loader.Registry().Stats(), "no owned handle to release yet")
	loadAndApply(t, g, loader, reqs)
	assert.Equal(t, 1, opener.count("/uploads/a.jpg"))
	first := g.Active()
	require.True(t, first.Resource.Owned())
	assert.Equal(t, 0, first.Index)

	reqs = g.Jump(2)
	require.Len(t, reqs, 1)
	assert.True(t, first.Resource.Handle.Released())
	assert.Equal(t, media.Stats{Created: 1, Released: 1}, loader.Registry().Stats())
	loadAndApply(t, g, loader, reqs)
	assert.Equal(t, 1, opener.count("/uploads/c.jpg"))
	assert.Equal(t, 2, g.Active().Index)

	g.Close()
	assert.Equal(t, media.Stats{Created: 2, Released: 2}, loader.Registry().Stats())
}

func TestNavigation_Boundaries(t *testing.T) {
	g := New(refs("a", "b"), nil, 0, Options{})
	g.Open()

	assert.Empty(t, g.Previous())
	assert.Len(t, g.Next(), 1)
	assert.Empty(t, g.Next())
	idx, _ := g.Cursor()
	assert.Equal(t, 1, idx)
	assert.Empty(t, g.Jump(7))
	assert.Empty(t, g.Jump(1))
}

func TestRapidNavigation_StaleResultsDiscardedAndReleased(t *testing.T) {
	loader, _ := newLoader()
	g := New(refs("a", "b", "c", "d"), nil, 0, Options{})

	var pending []Request
	pending = append(pending, g.Open()...)
	pending = append(pending, g.Next()...)
	pending = append(pending, g.Next()...)
	pending = append(pending, g.Previous()...)
	pending = append(pending, g.Jump(3)...)
	pending = append(pending, g.Previous()...)
	require.Len(t, pending, 6)

	results := make([]Result, len(pending))
	for i, req := range pending {
		results[i] = Load(context.Background(), loader, req)
	}

	// Complete in reverse: the latest request lands first, then every older
	// one arrives late and must not overwrite it.
	applied := 0
	for i := len(results) - 1; i >= 0; i-- {
		if g.Apply(results[i]) {
			applied++
		}
	}
	assert.Equal(t, 1, applied)

	idx, _ := g.Cursor()
	active := g.Active()
	assert.Equal(t, 2, idx)
	assert.Equal(t, idx, active.Index)
	assert.Equal(t, media.Ref("c"), active.Ref)
	assert.Equal(t, Displayed, active.State)
	assert.Equal(t, results[len(results)-1].Resource.URL, active.Resource.URL)

	stats := loader.Registry().Stats()
	assert.Equal(t, uint64(6), stats.Created)
	assert.Equal(t, 1, stats.Live)

	g.Close()
	stats = loader.Registry().Stats()
	assert.Equal(t, stats.Created, stats.Released)
	assert.Zero(t, stats.Live)
}

func TestApply_DuplicateResultDoesNotReleaseDisplayed(t *testing.T) {
	loader, _ := newLoader()
	g := New(refs("a"), nil, 0, Options{})
	reqs := g.Open()
	res := Load(context.Background(), loader, reqs[0])

	assert.True(t, g.Apply(res))
	assert.False(t, g.Apply(res))
	assert.False(t, g.Active().Resource.Handle.Released())
	g.Close()
	assert.True(t, res.Resource.Handle.Released())
}

func TestRetry_AfterUnauthorized(t *testing.T) {
	loader, opener := newLoader()
	opener.setStatus("/uploads/a.png", http.StatusUnauthorized)
	g := New(refs("/uploads/a.png"), nil, 0, Options{})

	loadAndApply(t, g, loader, g.Open())
	active := g.Active()
	require.Equal(t, Errored, active.State)
	assert.ErrorIs(t, active.Err, media.ErrUnauthorized)
	assert.Equal(t, 1, opener.count("/uploads/a.png"))

	opener.setStatus("/uploads/a.png", http.StatusOK)
	reqs := g.Retry(ActiveSlot)
	require.Len(t, reqs, 1)
	active = g.Active()
	assert.Equal(t, Loading, active.State)
	assert.NoError(t, active.Err)
	assert.Equal(t, 1, active.Retries)

	loadAndApply(t, g, loader, reqs)
	assert.Equal(t, 2, opener.count("/uploads/a.png"))
	assert.Equal(t, Displayed, g.Active().State)
}

func TestRetry_SupersedesInFlightLoad(t *testing.T) {
	loader, _ := newLoader()
	g := New(refs("a"), nil, 0, Options{})

	first := g.Open()
	second := g.Retry(ActiveSlot)
	stale := Load(context.Background(), loader, first[0])
	fresh := Load(context.Background(), loader, second[0])

	assert.True(t, g.Apply(fresh))
	assert.False(t, g.Apply(stale))
	assert.True(t, stale.Resource.Handle.Released())
	assert.Equal(t, fresh.Resource.URL, g.Active().Resource.URL)
}

func TestRetry_IgnoredWhenClosedOrIdle(t *testing.T) {
	g := New(refs("a"), nil, 0, Options{})
	assert.Empty(t, g.Retry(ActiveSlot))
	g.Open()
	assert.Empty(t, g.Retry(ThumbnailSlot(0)), "thumbnails disabled, slot idle")
	assert.Empty(t, g.Retry(ThumbnailSlot(9)))
}

func TestThumbnails_LoadedAndReleasedOnClose(t *testing.T) {
	loader, opener := newLoader()
	g := New(refs("a", "https://cdn/b.jpg", "c"), nil, 0, Options{Thumbnails: true})

	reqs := g.Open()
	require.Len(t, reqs, 4)
	for _, res := range Prefetch(context.Background(), loader, reqs, 2) {
		assert.True(t, g.Apply(res))
	}
	assert.Equal(t, 2, opener.count("/uploads/a"), "active and thumbnail each fetch their own copy")

	for i := 0; i < 3; i++ {
		thumb, ok := g.Thumbnail(i)
		require.True(t, ok)
		assert.Equal(t, Displayed, thumb.State)
	}
	thumb, _ := g.Thumbnail(0)
	assert.NotEqual(t, g.Active().Resource.URL, thumb.Resource.URL)

	// Navigating leaves thumbnails alone.
	loadAndApply(t, g, loader, g.Next())
	thumb, _ = g.Thumbnail(0)
	assert.False(t, thumb.Resource.Handle.Released())

	g.Close()
	assert.False(t, g.Visible())
	assert.Equal(t, 3, g.Len())
	for i := 0; i < 3; i++ {
		thumb, _ := g.Thumbnail(i)
		assert.Equal(t, Idle, thumb.State)
	}
	assert.Equal(t, Idle, g.Active().State)
	stats := loader.Registry().Stats()
	assert.Zero(t, stats.Live)
	assert.Equal(t, stats.Created, stats.Released)
}

func TestSetThumbnails(t *testing.T) {
	loader, _ := newLoader()
	g := New(refs("a", "b"), nil, 0, Options{})
	loadAndApply(t, g, loader, g.Open())

	reqs := g.SetThumbnails(true)
	require.Len(t, reqs, 2)
	loadAndApply(t, g, loader, reqs)
	assert.Equal(t, 3, loader.Registry().Stats().Live)

	assert.Empty(t, g.SetThumbnails(true))
	assert.Empty(t, g.SetThumbnails(false))
	assert.Equal(t, 1, loader.Registry().Stats().Live)
}

func TestClose_LateResultIsReleased(t *testing.T) {
	loader, _ := newLoader()
	g := New(refs("a"), nil, 0, Options{})
	reqs := g.Open()
	g.Close()

	res := Load(context.Background(), loader, reqs[0])
	assert.False(t, g.Apply(res))
	assert.True(t, res.Resource.Handle.Released())

	reqs = g.Open()
	require.Len(t, reqs, 1)
	loadAndApply(t, g, loader, reqs)
	assert.Equal(t, Displayed, g.Active().State)
}

func TestReplace_ClampsAndDiscardsOldEpoch(t *testing.T) {
	loader, _ := newLoader()
	g := New(refs("a", "b", "c"), nil, 2, Options{Thumbnails: true})
	old := g.Open()

	reqs := g.Replace(refs("x", "y"), []*string{strPtr("X")})
	idx, _ := g.Cursor()
	assert.Equal(t, 1, idx)
	require.Len(t, reqs, 3)

	for _, req := range old {
		res := Load(context.Background(), loader, req)
		assert.False(t, g.Apply(res))
		assert.True(t, res.Resource.Handle.Released())
	}
	loadAndApply(t, g, loader, reqs)
	assert.Equal(t, media.Ref("y"), g.Active().Ref)
	name, ok := g.Name(0)
	assert.True(t, ok)
	assert.Equal(t, "X", name)

	assert.Empty(t, g.Replace(nil, nil))
	_, ok = g.Cursor()
	assert.False(t, ok)
	assert.Equal(t, Idle, g.Active().State)
	assert.Zero(t, loader.Registry().Stats().Live)
}

func TestReplace_WhileClosedDoesNotLoad(t *testing.T) {
	g := New(nil, nil, 0, Options{})
	assert.Empty(t, g.Replace(refs("a"), nil))
	idx, ok := g.Cursor()
	assert.True(t, ok)
	assert.Equal(t, 0, idx)
}

func TestEditing(t *testing.T) {
	g := New(refs("a", "b"), []*string{strPtr("Front gate")}, 0, Options{})

	value, ok := g.BeginEdit(0)
	require.True(t, ok)
	assert.Equal(t, "Front gate", value)
	idx, editing := g.Editing()
	assert.True(t, editing)
	assert.Equal(t, 0, idx)

	require.True(t, g.CommitEdit(0, "  Rear gate  "))
	name, _ := g.Name(0)
	assert.Equal(t, "Rear gate", name)
	_, editing = g.Editing()
	assert.False(t, editing)

	g.BeginEdit(1)
	g.CancelEdit(1)
	_, ok = g.Name(1)
	assert.False(t, ok)
	_, editing = g.Editing()
	assert.False(t, editing)

	require.True(t, g.CommitEdit(0, "   "))
	_, ok = g.Name(0)
	assert.False(t, ok)
	assert.Nil(t, g.Names()[0])

	assert.False(t, g.CommitEdit(5, "x"))
	_, ok = g.BeginEdit(-1)
	assert.False(t, ok)
}

func TestRequestDelete(t *testing.T) {
	var gotIndex int
	var gotRef media.Ref
	g := New(refs("a", "b"), nil, 1, Options{OnDelete: func(i int, ref media.Ref) {
		gotIndex, gotRef = i, ref
	}})
	assert.True(t, g.RequestDelete())
	assert.Equal(t, 1, gotIndex)
	assert.Equal(t, media.Ref("b"), gotRef)
	assert.Equal(t, 2, g.Len(), "deleting is the data source's job")

	assert.False(t, New(refs("a"), nil, 0, Options{}).RequestDelete())
}

func TestPrefetch_CancelledContext(t *testing.T) {
	loader, opener := newLoader()
	g := New(refs("a", "b"), nil, 0, Options{Thumbnails: true})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := Prefetch(ctx, loader, g.Open(), 1)
	require.Len(t, results, 3)
	for _, res := range results {
		assert.ErrorIs(t, res.Err, media.ErrNetwork)
	}
	assert.Zero(t, opener.total())
}

func TestStateAndSlotStrings(t *testing.T) {
	assert.Equal(t, "loading", Loading.String())
	assert.Equal(t, "idle", State(42).String())
	assert.True(t, ThumbnailSlot(0).IsThumbnail())
	assert.False(t, ActiveSlot.IsThumbnail())
}
