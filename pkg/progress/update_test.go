package progress

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpdate_MarshalJSON_OmitsAbsentFields(t *testing.T) {
	update := NewUpdate("hello", LevelInfo, nil, nil)

	data, err := json.Marshal(update)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, "hello", decoded["message"])
	assert.Equal(t, "info", decoded["level"])
	assert.Contains(t, decoded, "timestamp")
	assert.NotContains(t, decoded, "progress")
	assert.NotContains(t, decoded, "metadata")
}

func TestUpdate_MarshalJSON_IncludesSuppliedFields(t *testing.T) {
	update := NewUpdate("half way", LevelSuccess, Percent(50), map[string]any{
		"phase": "checks",
	})

	data, err := json.Marshal(update)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, 50.0, decoded["progress"])
	metadata, ok := decoded["metadata"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "checks", metadata["phase"])
}

func TestUpdate_ToMap(t *testing.T) {
	tests := []struct {
		name        string
		update      Update
		wantKeys    []string
		missingKeys []string
	}{
		{
			name:        "bare update",
			update:      NewUpdate("m", LevelDebug, nil, nil),
			wantKeys:    []string{"message", "level", "timestamp"},
			missingKeys: []string{"progress", "metadata"},
		},
		{
			name:     "full update",
			update:   NewUpdate("m", LevelWarning, Percent(12.5), map[string]any{"k": "v"}),
			wantKeys: []string{"message", "level", "timestamp", "progress", "metadata"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := tt.update.ToMap()
			for _, key := range tt.wantKeys {
				assert.Contains(t, m, key)
			}
			for _, key := range tt.missingKeys {
				assert.NotContains(t, m, key)
			}
		})
	}
}

func TestPercent(t *testing.T) {
	p := Percent(33.3)
	require.NotNil(t, p)
	assert.Equal(t, 33.3, *p)
}
