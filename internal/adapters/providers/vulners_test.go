package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestVulnersClient(t *testing.T, handler http.HandlerFunc) *VulnersClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewVulnersClient(NewClient(nil), server.URL, "test-key")
}

func TestVulnersClient_NormalizesToNVDShape(t *testing.T) {
	v := newTestVulnersClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search/id/", r.URL.Path)
		fmt.Fprint(w, `{
			"result": "OK",
			"data": {
				"documents": {
					"CVE-2021-44228": {
						"id": "cve-2021-44228",
						"title": "Log4Shell",
						"description": "JNDI lookup remote code execution",
						"published": "2021-12-10T10:15:00Z",
						"modified": "2022-01-02T00:00:00Z",
						"cvss3": {"cvssV3": {"baseScore": 10.0, "baseSeverity": "CRITICAL", "vectorString": "CVSS:3.1/AV:N"}},
						"cwe": ["CWE-502"],
						"references": ["https://logging.apache.org/log4j/2.x/security.html"]
					}
				}
			}
		}`)
	})

	rec, err := v.CVEByID(context.Background(), "CVE-2021-44228")
	require.NoError(t, err)

	assert.Equal(t, "CVE-2021-44228", rec.ID, "identifier is upper-cased")
	assert.Equal(t, "JNDI lookup remote code execution", rec.Description)
	assert.Equal(t, 2021, rec.Published.Year())

	require.Len(t, rec.Metrics, 1)
	assert.Equal(t, "3.1", rec.Metrics[0].Version)
	assert.Equal(t, 10.0, rec.Metrics[0].Score)
	assert.Equal(t, "CRITICAL", rec.Metrics[0].Severity)

	require.Len(t, rec.Weaknesses, 1)
	assert.Equal(t, "CWE-502", rec.Weaknesses[0].CWEID)

	require.Len(t, rec.References, 1)
	assert.Equal(t, "vulners", rec.References[0].Source)
}

func TestVulnersClient_TitleFallsBackAsDescription(t *testing.T) {
	v := newTestVulnersClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{
			"result": "OK",
			"data": {"documents": {"CVE-2024-0001": {"id": "CVE-2024-0001", "title": "Some vulnerability"}}}
		}`)
	})

	rec, err := v.CVEByID(context.Background(), "CVE-2024-0001")
	require.NoError(t, err)
	assert.Equal(t, "Some vulnerability", rec.Description)
	assert.Empty(t, rec.Metrics, "zero scores yield no synthesized metric")
}

func TestVulnersClient_NonOKResultIsError(t *testing.T) {
	v := newTestVulnersClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"result": "ERROR"}`)
	})

	_, err := v.CVEByID(context.Background(), "CVE-2024-0001")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `result "ERROR"`)
}

func TestVulnersClient_MissingDocumentIsError(t *testing.T) {
	v := newTestVulnersClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"result": "OK", "data": {"documents": {}}}`)
	})

	_, err := v.CVEByID(context.Background(), "CVE-2024-0001")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no document for CVE-2024-0001")
}
