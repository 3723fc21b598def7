package main

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bbernstein/nextdeparture/internal/models"
)

func writeFeed(t *testing.T) string {
	t.Helper()

	files := map[string]string{
		"agency.txt":     "agency_id,agency_name,agency_url,agency_timezone\nHSL,HSL,https://www.hsl.fi,Europe/Helsinki\n",
		"stops.txt":      "stop_id,stop_name,stop_lat,stop_lon\nKAMP,Kamppi,60.1690,24.9320\nRAUT,Rautatientori,60.1709,24.9410\n",
		"routes.txt":     "route_id,agency_id,route_short_name,route_long_name,route_type\nR21,HSL,21,,3\nR9,HSL,9,,0\n",
		"trips.txt":      "route_id,service_id,trip_id\nR21,ALL,T1\nR9,ALL,T2\n",
		"stop_times.txt": "trip_id,arrival_time,departure_time,stop_id,stop_sequence\nT1,10:00:00,10:00:00,KAMP,1\nT1,10:05:00,10:05:00,RAUT,2\nT2,10:10:00,10:10:00,KAMP,1\nT2,10:15:00,10:15:00,RAUT,2\n",
		"calendar.txt":   "service_id,monday,tuesday,wednesday,thursday,friday,saturday,sunday,start_date,end_date\nALL,1,1,1,1,1,1,1,20240101,20241231\n",
	}

	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, content := range files {
		f, err := w.Create(name)
		require.NoError(t, err)
		_, err = f.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	path := filepath.Join(t.TempDir(), "hsl.zip")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o600))
	return path
}

func execute(t *testing.T, args ...string) (models.NextDepartureResponse, error) {
	t.Helper()
	t.Setenv("CACHE_ENABLE_DYNAMO", "false")

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)

	err := cmd.Execute()

	var body models.NextDepartureResponse
	if out.Len() > 0 {
		require.NoError(t, json.Unmarshal(out.Bytes(), &body))
	}
	return body, err
}

func TestNextdep(t *testing.T) {
	feed := writeFeed(t)

	// Monday 2024-01-15 09:50 in Helsinki
	body, err := execute(t, "--feed", feed, "--lat", "60.1690", "--lon", "24.9320", "--time", "1705305000", "--offset", "0")
	require.NoError(t, err)
	require.Equal(t, 1, body.Count)
	assert.Equal(t, map[string]string{
		"21 to Rautatientori from Kamppi": "Mon Jan 15 10:00:00 EET 2024",
		"9 to Rautatientori from Kamppi":  "Mon Jan 15 10:10:00 EET 2024",
	}, body.Results[0].LineAndTime)
	assert.Equal(t, map[string]string{
		"lat":        "60.169",
		"lon":        "24.932",
		"time":       "1705305000",
		"timeOffset": "0",
	}, body.RequestParameters)
}

func TestNextdep_LineFilter(t *testing.T) {
	body, err := execute(t, "--feed", writeFeed(t), "--index", "tree", "--lat", "60.1690", "--lon", "24.9320", "--time", "1705305000", "--offset", "0", "--line", "9 to")
	require.NoError(t, err)
	require.Equal(t, 1, body.Count)
	assert.Len(t, body.Results[0].LineAndTime, 1)
	assert.Contains(t, body.Results[0].LineAndTime, "9 to Rautatientori from Kamppi")
}

func TestNextdep_Failures(t *testing.T) {
	feed := writeFeed(t)

	body, err := execute(t, "--feed", feed, "--lat", "60.1690", "--lon", "24.9320", "--time", "noon")
	assert.Error(t, err)
	assert.NotEmpty(t, body.Error)

	_, err = execute(t, "--feed", feed, "--lat", "60.1690")
	assert.Error(t, err)

	_, err = execute(t, "--lat", "60.1690", "--lon", "24.9320")
	assert.Error(t, err)
}
