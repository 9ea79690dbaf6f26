package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestThreatFoxClient(t *testing.T, handler http.HandlerFunc) *ThreatFoxClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewThreatFoxClient(NewClient(nil), server.URL)
}

func TestThreatFoxClient_RecentIOCs(t *testing.T) {
	tf := newTestThreatFoxClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "get_iocs", req["query"])
		assert.EqualValues(t, 7, req["days"])

		fmt.Fprint(w, `{
			"query_status": "ok",
			"data": [
				{"id": "100", "ioc": "203.0.113.7:4444", "ioc_type": "ip:port", "malware": "win.cobalt_strike", "confidence_level": 75, "tags": ["CobaltStrike"]},
				{"id": "101", "ioc": "", "ioc_type": "ip:port"}
			]
		}`)
	})

	iocs, err := tf.RecentIOCs(context.Background(), 7)
	require.NoError(t, err)

	require.Len(t, iocs, 1, "rows without an indicator value are dropped")
	assert.Equal(t, "203.0.113.7:4444", iocs[0].IOC)
	assert.Equal(t, "win.cobalt_strike", iocs[0].Malware)
	assert.Equal(t, 75, iocs[0].ConfidenceLevel)
}

func TestThreatFoxClient_NoResultIsEmptyNotError(t *testing.T) {
	tf := newTestThreatFoxClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"query_status": "no_result", "data": "Your search did not yield any result"}`)
	})

	iocs, err := tf.IOCsByTag(context.Background(), "nonexistent")
	require.NoError(t, err)
	assert.Empty(t, iocs)
}

func TestThreatFoxClient_UnknownQueryStatusIsError(t *testing.T) {
	tf := newTestThreatFoxClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"query_status": "illegal_search_term"}`)
	})

	_, err := tf.RecentIOCs(context.Background(), 7)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "illegal_search_term")
}

func TestThreatFoxClient_MalwareListVariant(t *testing.T) {
	tf := newTestThreatFoxClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{
			"query_status": "ok",
			"data": {
				"win.cobalt_strike": {"malware_printable": "Cobalt Strike", "count": "1200"},
				"win.emotet": {"malware_printable": "Emotet", "count": 350}
			}
		}`)
	})

	families, err := tf.MalwareList(context.Background())
	require.NoError(t, err)
	require.Len(t, families, 2)

	byName := make(map[string]int)
	for _, f := range families {
		byName[f.Name] = f.IOCCount
	}
	assert.Equal(t, 1200, byName["win.cobalt_strike"], "string counts parse")
	assert.Equal(t, 350, byName["win.emotet"], "numeric counts parse")
}

func TestThreatFoxClient_IOCVariantRejectsMalwareMapShape(t *testing.T) {
	tf := newTestThreatFoxClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"query_status": "ok", "data": {"win.emotet": {"count": 1}}}`)
	})

	_, err := tf.RecentIOCs(context.Background(), 7)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not an ioc array")
}
