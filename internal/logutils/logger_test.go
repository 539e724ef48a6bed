package logutils

import (
	"bytes"
	"encoding/json"
	"os"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigureLevel(t *testing.T) {
	defer Configure("info", "text")

	Configure("debug", "text")
	assert.Equal(t, logrus.DebugLevel, Log.GetLevel())

	Configure("loud", "text")
	assert.Equal(t, logrus.InfoLevel, Log.GetLevel())
}

func TestWithComponentJSON(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stderr)
	defer Configure("info", "text")

	Configure("info", "json")
	WithComponent("projects").WithField("project_id", 7).Info("created")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "projects", entry["component"])
	assert.Equal(t, "created", entry["msg"])
	assert.EqualValues(t, 7, entry["project_id"])
}
