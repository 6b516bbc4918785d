package depot_test

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/sagarc03/depot"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummary_MarshalJSON_PreservesOrder(t *testing.T) {
	r := newTestRegistry(t)

	data, err := json.Marshal(r.Summarize(false))
	require.NoError(t, err)

	body := string(data)
	last := -1
	for _, name := range r.Names() {
		idx := strings.Index(body, `"`+name+`":`)
		require.NotEqual(t, -1, idx, name)
		assert.Greater(t, idx, last, "warehouse %s out of order", name)
		last = idx
	}
}

func TestSummary_MarshalJSON_Fields(t *testing.T) {
	r := newTestRegistry(t)

	data, err := json.Marshal(r.Summarize(false))
	require.NoError(t, err)

	var decoded map[string]map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))

	audio := decoded["audio"]
	require.NotNil(t, audio)
	assert.Equal(t, float64(5*depot.MiB), audio["maxSize"])
	assert.Equal(t, float64(5), audio["maxFiles"])
	assert.Equal(t, float64(0), audio["fileCount"])
	assert.Equal(t, float64(0), audio["usedStorage"])
	assert.Equal(t, []any{}, audio["fileNames"])
	assert.Equal(t, []any{"audio/mpeg", "audio/wav", "audio/ogg"}, audio["allowedTypes"])
	assert.NotContains(t, audio, "Name")
}

func TestSummary_MarshalJSON_Empty(t *testing.T) {
	data, err := json.Marshal(depot.Summary{})
	require.NoError(t, err)
	assert.Equal(t, "{}", string(data))
}

func TestSummary_UnmarshalJSON_PreservesOrder(t *testing.T) {
	r := newTestRegistry(t)
	want := r.Summarize(false)

	data, err := json.Marshal(want)
	require.NoError(t, err)

	var got depot.Summary
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, want, got)
}

func TestSummary_UnmarshalJSON_Errors(t *testing.T) {
	for _, input := range []string{`[]`, `{"audio":1}`, `{"audio":{}`} {
		var s depot.Summary
		assert.Error(t, json.Unmarshal([]byte(input), &s), input)
	}
}

func TestFileInfo_JSON(t *testing.T) {
	data, err := json.Marshal(depot.FileInfo{Name: "track.mp3", Size: 3145728, Warehouse: "audio", Type: "audio/mpeg"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"track.mp3","size":3145728,"warhouse":"audio","type":"audio/mpeg"}`, string(data))
}

func TestPolicy_Allows(t *testing.T) {
	p := depot.Policy{AllowedTypes: []string{"text/plain", "application/pdf"}}

	assert.True(t, p.Allows("text/plain"))
	assert.True(t, p.Allows("TEXT/PLAIN; charset=utf-8"))
	assert.True(t, p.Allows("application/pdf"))
	assert.False(t, p.Allows("text/html"))
	assert.False(t, p.Allows(""))
	assert.False(t, p.Allows(";;;"))
}

func TestTables_Validate(t *testing.T) {
	assert.NoError(t, depot.Tables{Events: "depot_events"}.Validate())
	assert.Error(t, depot.Tables{}.Validate())
	assert.Error(t, depot.Tables{Events: "Bad-Name"}.Validate())
}
