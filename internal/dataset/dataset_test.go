package dataset

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/disaster-funding-service/internal/domain"
)

func newTestLoader() *Loader {
	return NewLoader(NewFetcher(time.Second, testLogger()), testLogger())
}

func TestLoader_LoadAll(t *testing.T) {
	loadedAt := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	domain.SetClock(clockwork.NewFakeClockAt(loadedAt))
	t.Cleanup(func() { domain.SetClock(nil) })

	ds, errs := newTestLoader().Load(context.Background(), Sources{
		Disasters: "testdata/disasters.csv",
		Districts: "testdata/districts.csv",
		Geometry:  "testdata/states.geojson",
	})

	require.Empty(t, errs)
	require.NotNil(t, ds)
	assert.Len(t, ds.Records, 4)
	assert.Len(t, ds.Districts, 2)
	require.NotNil(t, ds.Geometry)
	assert.Len(t, ds.Geometry.Features, 4)
	assert.Equal(t, loadedAt, ds.LoadedAt)
}

func TestLoader_DisastersOverHTTP(t *testing.T) {
	srv := httptest.NewServer(http.FileServer(http.Dir("testdata")))
	defer srv.Close()

	ds, errs := newTestLoader().Load(context.Background(), Sources{Disasters: srv.URL + "/disasters.csv"})

	require.Empty(t, errs)
	assert.Len(t, ds.Records, 4)
	assert.Empty(t, ds.Districts)
	assert.Nil(t, ds.Geometry)
}

func TestLoader_DisastersFailure(t *testing.T) {
	ds, errs := newTestLoader().Load(context.Background(), Sources{Disasters: "testdata/missing.csv"})

	assert.Nil(t, ds)
	require.Len(t, errs, 1)
	var loadErr *LoadError
	require.ErrorAs(t, errs[0], &loadErr)
	assert.Equal(t, "disasters", loadErr.Dataset)
}

func TestLoader_OptionalFailuresKeepDataset(t *testing.T) {
	ds, errs := newTestLoader().Load(context.Background(), Sources{
		Disasters: "testdata/disasters.csv",
		Districts: "testdata/missing.csv",
		Geometry:  "testdata/disasters.csv",
	})

	require.NotNil(t, ds)
	assert.Len(t, ds.Records, 4)
	assert.Empty(t, ds.Districts)
	assert.Nil(t, ds.Geometry)

	require.Len(t, errs, 2)
	var first, second *LoadError
	require.ErrorAs(t, errs[0], &first)
	require.ErrorAs(t, errs[1], &second)
	assert.Equal(t, "districts", first.Dataset)
	assert.Equal(t, "geometry", second.Dataset)
}

func TestDataset_Indexes(t *testing.T) {
	ds, errs := newTestLoader().Load(context.Background(), Sources{Disasters: "testdata/disasters.csv"})
	require.Empty(t, errs)

	first := ds.Records[0]
	got, ok := ds.Record(first.ID)
	assert.True(t, ok)
	assert.Equal(t, first.Event, got.Event)

	_, ok = ds.Record("evt-missing")
	assert.False(t, ok)

	assert.Equal(t, []string{"Fire", "Flood", "Hurricane"}, ds.Types())
	assert.Equal(t, []string{"LA", "PR", "TX"}, ds.Regions())
	assert.Equal(t, 1, ds.Unrecognized())

	earliest, latest := ds.DateRange()
	assert.Equal(t, 2016, earliest.Year())
	assert.Equal(t, 2020, latest.Year())
}
