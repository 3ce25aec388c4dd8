package httputil

import (
	"encoding/json"
	"html"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	api_models "github.com/omgcreativity/laojia/internal/models"
)

func TestRespondBridgePageEscapesPayload(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondBridgePage(rec, api_models.BridgeFetchResponse{
		HasNew:  true,
		Content: `x < y </pre> "quoted"`,
	})

	body := rec.Body.String()
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")

	// The payload contributes no raw markup: every < and > in the page
	// belongs to the fixed skeleton.
	require.True(t, strings.HasPrefix(body, "<html><body><pre>"))
	require.True(t, strings.HasSuffix(body, "</pre></body></html>"))
	payloadPart := strings.TrimSuffix(strings.TrimPrefix(body, "<html><body><pre>"), "</pre></body></html>")
	assert.NotContains(t, payloadPart, "<")
	assert.NotContains(t, payloadPart, ">")

	// Undoing the escaping (what a browser renders as body text) yields the
	// intact marker framing and the original content.
	rendered := html.UnescapeString(payloadPart)
	require.True(t, strings.HasPrefix(rendered, "BRIDGE_DATA:"))
	require.True(t, strings.HasSuffix(rendered, ":END"))
	inner := strings.TrimSuffix(strings.TrimPrefix(rendered, "BRIDGE_DATA:"), ":END")

	var resp api_models.BridgeFetchResponse
	require.NoError(t, json.Unmarshal([]byte(inner), &resp))
	assert.True(t, resp.HasNew)
	assert.Equal(t, `x < y </pre> "quoted"`, resp.Content)
}

func TestRespondPlainPageHasNoMarker(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondPlainPage(rec, "nothing pending <here>")

	body := rec.Body.String()
	assert.NotContains(t, body, "BRIDGE_DATA:")
	assert.NotContains(t, body, "<here>")
	assert.Contains(t, html.UnescapeString(body), "nothing pending <here>")
}
