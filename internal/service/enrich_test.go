package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"EventScout/internal/model"
)

// fakeGeocoder 固定返回配置坐标
type fakeGeocoder struct {
	lat, lng float64
	ok       bool
	calls    int
}

func (f *fakeGeocoder) Geocode(_ context.Context, _ string) (float64, float64, bool) {
	f.calls++
	return f.lat, f.lng, f.ok
}

func enrichListing() *model.Listing {
	date := time.Date(2026, 9, 12, 0, 0, 0, 0, time.UTC) // 星期六
	return &model.Listing{
		Title:        "Jazz Night",
		Description:  "Live music by the bay.",
		Address:      "11 Marina Blvd, Singapore",
		Date:         &date,
		CategorySlug: "music",
		ScrapedFrom:  "eventbrite",
	}
}

func TestEnrichGeocodesWhenCoordinatesMissing(t *testing.T) {
	geocoder := &fakeGeocoder{lat: 1.2806, lng: 103.8540, ok: true}
	e := NewEnricher(geocoder, quietLogger())

	l := enrichListing()
	e.Enrich(context.Background(), l)

	assert.Equal(t, 1, geocoder.calls)
	require.NotNil(t, l.Latitude)
	assert.InDelta(t, 1.2806, *l.Latitude, 1e-6)
}

func TestEnrichSkipsGeocodeWhenCoordinatesPresent(t *testing.T) {
	geocoder := &fakeGeocoder{ok: true}
	e := NewEnricher(geocoder, quietLogger())

	l := enrichListing()
	lat, lng := 1.3, 103.8
	l.Latitude, l.Longitude = &lat, &lng
	e.Enrich(context.Background(), l)

	assert.Equal(t, 0, geocoder.calls)
}

func TestEnrichClearsOutOfBoundsCoordinates(t *testing.T) {
	e := NewEnricher(nil, quietLogger())
	l := enrichListing()
	lat, lng := 35.6762, 139.6503 // 东京
	l.Latitude, l.Longitude = &lat, &lng
	e.Enrich(context.Background(), l)

	// 只清坐标，记录本身保留
	assert.Nil(t, l.Latitude)
	assert.Nil(t, l.Longitude)
	assert.Equal(t, "Jazz Night", l.Title)
}

func TestEnrichLiftsLocationToArea(t *testing.T) {
	e := NewEnricher(nil, quietLogger())
	l := enrichListing()
	l.Address = "1 Tampines Walk, Singapore 528523"
	e.Enrich(context.Background(), l)
	assert.Equal(t, "Tampines, Singapore", l.Location)
}

func TestEnrichEnsuresSingaporeInLocation(t *testing.T) {
	e := NewEnricher(nil, quietLogger())
	l := enrichListing()
	l.Address = ""
	l.Location = "Somewhere Obscure"
	e.Enrich(context.Background(), l)
	assert.Equal(t, "Somewhere Obscure, Singapore", l.Location)
}

func TestEnrichMapsCategorySynonym(t *testing.T) {
	e := NewEnricher(nil, quietLogger())

	cases := map[string]string{
		"music":      "concerts",
		"arts":       "exhibitions",
		"dining":     "food",
		"fitness":    "sports",
		"networking": "business",
		"shopping":   "general",
		"concerts":   "concerts",
		"bogus":      "general",
	}
	for in, want := range cases {
		l := enrichListing()
		l.CategorySlug = in
		e.Enrich(context.Background(), l)
		assert.Equal(t, want, l.CategorySlug, "category=%q", in)
	}
}

func TestEnrichInfersTags(t *testing.T) {
	e := NewEnricher(nil, quietLogger())
	l := enrichListing()
	l.Time = model.NewClock(19, 30)
	l.PriceInfo = "Free admission"
	e.Enrich(context.Background(), l)

	assert.Contains(t, l.TagSlugs, "evening")
	assert.Contains(t, l.TagSlugs, "weekend") // 2026-09-12 是星期六
	assert.Contains(t, l.TagSlugs, "free")
	assert.LessOrEqual(t, len(l.TagSlugs), maxTags)
	for _, tag := range l.TagSlugs {
		assert.Regexp(t, `^[a-z0-9-]+$`, tag)
	}
}

func TestEnrichDefaultTimeByCategory(t *testing.T) {
	e := NewEnricher(nil, quietLogger())

	cases := map[string]string{
		"music":    "20:00", // music→concerts
		"business": "09:00",
		"family":   "10:00",
		"general":  "19:00",
	}
	for category, want := range cases {
		l := enrichListing()
		l.CategorySlug = category
		l.Time = nil
		e.Enrich(context.Background(), l)
		require.NotNil(t, l.Time, "category=%q", category)
		assert.Equal(t, want, l.Time.String(), "category=%q", category)
	}
}

func TestExternalIDStable(t *testing.T) {
	e := NewEnricher(nil, quietLogger())
	a := enrichListing()
	b := enrichListing()
	e.Enrich(context.Background(), a)
	e.Enrich(context.Background(), b)

	assert.Len(t, a.ExternalID, extIDLen)
	assert.Equal(t, a.ExternalID, b.ExternalID)

	c := enrichListing()
	c.Title = "Different Event"
	e.Enrich(context.Background(), c)
	assert.NotEqual(t, a.ExternalID, c.ExternalID)
}
