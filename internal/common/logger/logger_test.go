package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entries(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		var e map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &e))
		out = append(out, e)
	}
	return out
}

func TestEntries(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter("order-service", &buf).With(map[string]any{"component": "kitchen"})

	log.Info("tickets_created", map[string]any{"tickets": 2})
	log.Error("publish_failed", errors.New("channel closed"), nil)

	got := entries(t, &buf)
	require.Len(t, got, 2)
	assert.Equal(t, "INFO", got[0]["level"])
	assert.Equal(t, "order-service", got[0]["service"])
	assert.Equal(t, "tickets_created", got[0]["action"])
	assert.Equal(t, "kitchen", got[0]["component"])
	assert.EqualValues(t, 2, got[0]["tickets"])

	assert.Equal(t, "ERROR", got[1]["level"])
	assert.Equal(t, "channel closed", got[1]["error"].(map[string]any)["msg"])
}

func TestWithDoesNotLeakIntoParent(t *testing.T) {
	var buf bytes.Buffer
	parent := NewWithWriter("svc", &buf)
	_ = parent.With(map[string]any{"component": "child"})

	parent.Warn("plain", nil)
	got := entries(t, &buf)
	assert.NotContains(t, got[0], "component")
}
