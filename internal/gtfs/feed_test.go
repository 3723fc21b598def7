package gtfs

import (
	"context"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bbernstein/nextdeparture/internal/models"
)

// 2024-01-15 00:00 Europe/Helsinki
const mondayStart = int64(1705269600)

func byDescriptor(patterns []models.ScheduledPattern) map[string][]int64 {
	out := make(map[string][]int64)
	for _, p := range patterns {
		for _, trip := range p.Trips {
			out[p.Descriptor] = append(out[p.Descriptor], trip.Departure())
		}
	}
	return out
}

func TestParse_Vertices(t *testing.T) {
	feed, err := Parse("hsl", helsinkiFeed(t))
	require.NoError(t, err)

	assert.Equal(t, "hsl", feed.Name())
	assert.Equal(t, "Europe/Helsinki", feed.TimeZone().String())

	kinds := make(map[models.VertexKind]int)
	departAtRaut := 0
	for _, v := range feed.Vertices() {
		kinds[v.Kind]++
		if v.Kind == models.VertexKindPatternDepart && v.StopID == "RAUT" {
			departAtRaut++
			assert.Equal(t, "Rautatientori", v.Name)
			assert.Equal(t, models.Coordinate{Latitude: 60.1709, Longitude: 24.9410}, v.Coordinate)
		}
	}
	assert.Equal(t, 3, kinds[models.VertexKindTransitStop])
	// three patterns; nothing departs from a pattern's last stop
	assert.Equal(t, 5, kinds[models.VertexKindPatternDepart])
	assert.Equal(t, 3, departAtRaut)

	stats := feed.Stats()
	assert.Equal(t, Stats{Stops: 3, Patterns: 3, Trips: 5, Vertices: 8}, stats)
}

func TestFeed_StopTimesForStop(t *testing.T) {
	feed, err := Parse("hsl", helsinkiFeed(t))
	require.NoError(t, err)

	tests := []struct {
		name string
		stop string
		key  string
		want map[string][]int64
	}{
		{
			name: "weekday",
			stop: "RAUT",
			key:  "20240115",
			want: map[string][]int64{
				"21 to Ruoholahti from Kamppi": {mondayStart + 36300, mondayStart + 38100, mondayStart + 88500},
				"21 to Kamppi from Ruoholahti": {mondayStart + 33000},
			},
		},
		{
			name: "removed weekday with added weekend service",
			stop: "RAUT",
			key:  "20240116",
			want: map[string][]int64{
				"9 to Kamppi from Rautatientori": {mondayStart + 86400 + 39600},
			},
		},
		{
			name: "saturday",
			stop: "RAUT",
			key:  "20240113",
			want: map[string][]int64{
				"9 to Kamppi from Rautatientori": {mondayStart - 2*86400 + 39600},
			},
		},
		{
			name: "last stop of every pattern has no departures",
			stop: "RUOH",
			key:  "20240115",
			want: map[string][]int64{
				"21 to Kamppi from Ruoholahti": {mondayStart + 32400},
			},
		},
		{
			name: "outside the calendar",
			stop: "RAUT",
			key:  "20250115",
			want: map[string][]int64{},
		},
		{
			name: "unknown stop",
			stop: "NOPE",
			key:  "20240115",
			want: map[string][]int64{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			patterns, err := feed.StopTimesForStop(context.Background(), tt.stop, tt.key)
			require.NoError(t, err)
			assert.Equal(t, tt.want, byDescriptor(patterns))
			for _, p := range patterns {
				assert.NotEmpty(t, p.Trips)
			}
		})
	}
}

func TestFeed_StopTimesForStop_BadKey(t *testing.T) {
	feed, err := Parse("hsl", helsinkiFeed(t))
	require.NoError(t, err)

	for _, key := range []string{"", "2024-01-15", "20240230", "2024011"} {
		_, err := feed.StopTimesForStop(context.Background(), "RAUT", key)
		var dateErr *models.DateParseError
		assert.ErrorAs(t, err, &dateErr, key)
	}
}

func TestParse_TimeZoneOverride(t *testing.T) {
	feed, err := Parse("hsl", helsinkiFeed(t), WithTimeZone(time.UTC))
	require.NoError(t, err)
	assert.Equal(t, time.UTC, feed.TimeZone())

	patterns, err := feed.StopTimesForStop(context.Background(), "RAUT", "20240115")
	require.NoError(t, err)
	require.NotEmpty(t, patterns)
	assert.Equal(t, mondayStart+7200, patterns[0].Trips[0].ServiceDayStart)
}

func TestParse_Version(t *testing.T) {
	data := helsinkiFeed(t)
	a, err := Parse("hsl", data)
	require.NoError(t, err)
	b, err := Parse("hsl", data)
	require.NoError(t, err)
	assert.Equal(t, a.Version(), b.Version())
	assert.Len(t, a.Version(), 16)

	files := make(map[string]string, len(helsinkiFeedFiles))
	for k, v := range helsinkiFeedFiles {
		files[k] = v
	}
	files["stops.txt"] += "EXTRA,Extra,60.2,24.9\n"
	c, err := Parse("hsl", zipFeed(t, files))
	require.NoError(t, err)
	assert.NotEqual(t, a.Version(), c.Version())
}

func TestParse_VersionIncludesTimeZone(t *testing.T) {
	data := helsinkiFeed(t)
	stockholm, err := time.LoadLocation("Europe/Stockholm")
	require.NoError(t, err)
	helsinki, err := time.LoadLocation("Europe/Helsinki")
	require.NoError(t, err)

	agency, err := Parse("hsl", data)
	require.NoError(t, err)
	sameZone, err := Parse("hsl", data, WithTimeZone(helsinki))
	require.NoError(t, err)
	otherZone, err := Parse("hsl", data, WithTimeZone(stockholm))
	require.NoError(t, err)

	assert.Equal(t, agency.Version(), sameZone.Version())
	assert.NotEqual(t, agency.Version(), otherZone.Version())
	assert.Len(t, otherZone.Version(), 16)
}

func TestParse_Invalid(t *testing.T) {
	_, err := Parse("broken", []byte("not a zip"))
	assert.ErrorContains(t, err, "parsing GTFS feed broken")
}

func TestFeed_CancelledContext(t *testing.T) {
	feed, err := Parse("hsl", helsinkiFeed(t))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = feed.StopTimesForStop(ctx, "RAUT", "20240115")
	assert.ErrorIs(t, err, context.Canceled)
}
