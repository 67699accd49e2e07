package irceline_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/breatheroute/irceline/internal/airquality"
	"github.com/breatheroute/irceline/internal/airquality/irceline"
)

const probeWithTimestamp = `{"type": "FeatureCollection", "features": [{"type": "Feature", "id": "", "geometry": null, "properties": {"GRAY_INDEX": 6.3}}], "totalFeatures": "unknown", "numberReturned": 1, "timeStamp": "2024-06-15T16:11:21.190Z", "crs": null}`

func probe(value string) string {
	return `{"type": "FeatureCollection", "features": [{"type": "Feature", "properties": {"GRAY_INDEX": ` + value + `}}]}`
}

func TestRioIfdmClient_FetchValues(t *testing.T) {
	server := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "WMS", q.Get("service"))
		assert.Equal(t, "GetFeatureInfo", q.Get("request"))
		assert.Equal(t, "application/json", q.Get("info_format"))
		assert.Equal(t, "EPSG:4326", q.Get("srs"))
		assert.Equal(t, "1", q.Get("width"))
		assert.Equal(t, "1", q.Get("height"))
		assert.Equal(t, q.Get("layers"), q.Get("query_layers"))
		assert.Contains(t, q.Get("bbox"), "4.35,50.85,")

		switch q.Get("layers") {
		case "rioifdm:no2_hmean":
			writeJSON(w, probeWithTimestamp)
		case "rioifdm:pm25_hmean":
			writeJSON(w, probe("8.25"))
		case "rioifdm:o3_hmean":
			writeJSON(w, "<html>oops</html>")
		case "rioifdm:belaqi":
			writeJSON(w, `{"type": "FeatureCollection", "features": []}`)
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	})
	client := irceline.NewRioIfdmClient(testConfig(server.URL))

	result, err := client.FetchValues(context.Background(), airquality.RioIfdmFeatures(),
		airquality.Position{Lat: 50.85, Lon: 4.35})
	require.NoError(t, err)
	require.Len(t, result, 5)

	no2 := result[airquality.RioIfdmNO2HMean]
	assert.Equal(t, 6.3, *no2.Value)
	assert.Equal(t, time.Date(2024, 6, 15, 16, 11, 21, 190000000, time.UTC), no2.Time.UTC())

	pm25 := result[airquality.RioIfdmPM25HMean]
	assert.Equal(t, 8.25, *pm25.Value)
	assert.Nil(t, pm25.Time)
	assert.Nil(t, pm25.Date)

	belaqi := result[airquality.RioIfdmBelAQI]
	assert.False(t, belaqi.HasValue())
	assert.Nil(t, belaqi.Time)

	for _, f := range []airquality.RioIfdmFeature{airquality.RioIfdmO3HMean, airquality.RioIfdmPM10HMean} {
		fv := result[f]
		assert.False(t, fv.HasValue(), f)
		require.NotNil(t, fv.Time, f)
		assert.Equal(t, testNow, *fv.Time, f)
	}
}

func TestRioIfdmClient_FetchValues_AllProbesFail(t *testing.T) {
	server := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	client := irceline.NewRioIfdmClient(testConfig(server.URL))

	_, err := client.FetchValues(context.Background(),
		[]airquality.RioIfdmFeature{airquality.RioIfdmNO2HMean, airquality.RioIfdmO3HMean},
		airquality.Position{Lat: 50.85, Lon: 4.35})
	require.Error(t, err)
	assert.ErrorIs(t, err, airquality.ErrCommunication)
}

func TestRioIfdmClient_FetchValues_InvalidParameters(t *testing.T) {
	client := irceline.NewRioIfdmClient(testConfig("http://127.0.0.1:0"))

	_, err := client.FetchValues(context.Background(), nil, airquality.Position{Lat: 50.85, Lon: 4.35})
	assert.ErrorIs(t, err, airquality.ErrInvalidParameter)

	_, err = client.FetchValues(context.Background(),
		[]airquality.RioIfdmFeature{airquality.RioIfdmNO2HMean},
		airquality.Position{Lat: 50.85, Lon: 190})
	assert.ErrorIs(t, err, airquality.ErrInvalidParameter)
}

func TestRioIfdmClient_Capabilities(t *testing.T) {
	server := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "WMS", r.URL.Query().Get("service"))
		assert.Equal(t, "GetCapabilities", r.URL.Query().Get("request"))
		_, _ = w.Write([]byte(wmsCapabilities))
	})
	client := irceline.NewRioIfdmClient(testConfig(server.URL))

	names, err := client.Capabilities(context.Background())
	require.NoError(t, err)
	assert.Len(t, names, 2)
}

func TestRioIfdmClient_Capabilities_InvalidXML(t *testing.T) {
	server := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("wow there no valid XML"))
	})
	client := irceline.NewRioIfdmClient(testConfig(server.URL))

	names, err := client.Capabilities(context.Background())
	require.NoError(t, err)
	assert.Empty(t, names)
}
