package gtfs

import (
	"archive/zip"
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

var helsinkiFeedFiles = map[string]string{
	"agency.txt": `agency_id,agency_name,agency_url,agency_timezone
HSL,Helsingin seudun liikenne,https://www.hsl.fi,Europe/Helsinki
`,
	"stops.txt": `stop_id,stop_name,stop_lat,stop_lon
KAMP,Kamppi,60.1690,24.9320
RAUT,Rautatientori,60.1709,24.9410
RUOH,Ruoholahti,60.1635,24.9150
`,
	"routes.txt": `route_id,agency_id,route_short_name,route_long_name,route_type
R21,HSL,21,Kamppi - Ruoholahti,3
R9,HSL,9,,0
`,
	"trips.txt": `route_id,service_id,trip_id
R21,WEEKDAY,T1
R21,WEEKDAY,T2
R9,WEEKEND,T3
R21,WEEKDAY,T4
R21,WEEKDAY,T5
`,
	"stop_times.txt": `trip_id,arrival_time,departure_time,stop_id,stop_sequence
T1,10:00:00,10:00:00,KAMP,1
T1,10:05:00,10:05:00,RAUT,2
T1,10:15:00,10:15:00,RUOH,3
T2,10:30:00,10:30:00,KAMP,1
T2,10:35:00,10:35:00,RAUT,2
T2,10:45:00,10:45:00,RUOH,3
T3,11:00:00,11:00:00,RAUT,1
T3,11:10:00,11:10:00,KAMP,2
T4,09:00:00,09:00:00,RUOH,1
T4,09:10:00,09:10:00,RAUT,2
T4,09:20:00,09:20:00,KAMP,3
T5,24:30:00,24:30:00,KAMP,1
T5,24:35:00,24:35:00,RAUT,2
T5,24:45:00,24:45:00,RUOH,3
`,
	"calendar.txt": `service_id,monday,tuesday,wednesday,thursday,friday,saturday,sunday,start_date,end_date
WEEKDAY,1,1,1,1,1,0,0,20240101,20241231
WEEKEND,0,0,0,0,0,1,1,20240101,20241231
`,
	"calendar_dates.txt": `service_id,date,exception_type
WEEKDAY,20240116,2
WEEKEND,20240116,1
`,
}

// zipFeed packs GTFS text files into an in-memory zip archive
func zipFeed(t *testing.T, files map[string]string) []byte {
	t.Helper()

	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, content := range files {
		f, err := w.Create(name)
		require.NoError(t, err)
		_, err = f.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func helsinkiFeed(t *testing.T) []byte {
	return zipFeed(t, helsinkiFeedFiles)
}
