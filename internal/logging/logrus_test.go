package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withRootLogger(t *testing.T) {
	t.Helper()
	prevOut := root.logger.Out
	prevBase := root.base
	prevLevel := root.logger.GetLevel()
	t.Cleanup(func() {
		CloseFile()
		root.base = prevBase
		root.logger.SetOutput(prevOut)
		root.logger.SetLevel(prevLevel)
	})
}

func TestNew_TagsComponent(t *testing.T) {
	withRootLogger(t)
	var buf bytes.Buffer
	log := New("agentconf", Output(&buf), Level("debug"))

	log.WithField("key", "Timeout").Debug("update")

	out := buf.String()
	assert.Contains(t, out, "component=agentconf")
	assert.Contains(t, out, "key=Timeout")
	assert.Contains(t, out, "level=debug")
}

func TestLevel_InvalidFallsBackToInfo(t *testing.T) {
	withRootLogger(t)
	require.NoError(t, Set(Output(&bytes.Buffer{})))
	require.NoError(t, Set(Level("loud")))
	assert.Equal(t, logrus.InfoLevel, root.logger.GetLevel())
}

func TestFile_AppendsToFile(t *testing.T) {
	withRootLogger(t)
	path := filepath.Join(t.TempDir(), "agent2upgrade.log")
	var buf bytes.Buffer
	require.NoError(t, Set(Output(&buf)))
	require.NoError(t, Set(File(path)))

	New("upgrade").Info("hello")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello")
	assert.Contains(t, buf.String(), "hello")
}

func TestFile_BadPath(t *testing.T) {
	withRootLogger(t)
	err := Set(File(filepath.Join(t.TempDir(), "missing", "x.log")))
	assert.Error(t, err)
}

func TestFile_ReplacesEarlierFile(t *testing.T) {
	withRootLogger(t)
	dir := t.TempDir()
	first := filepath.Join(dir, "first.log")
	second := filepath.Join(dir, "second.log")
	var buf bytes.Buffer
	require.NoError(t, Set(Output(&buf)))
	require.NoError(t, Set(File(first)))
	require.NoError(t, Set(File(second)))

	New("upgrade").Info("after-swap")

	data, err := os.ReadFile(first)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "after-swap")
	data, err = os.ReadFile(second)
	require.NoError(t, err)
	assert.Contains(t, string(data), "after-swap")
	assert.Equal(t, 1, strings.Count(buf.String(), "after-swap"))
}

func TestCloseFile_DetachesFile(t *testing.T) {
	withRootLogger(t)
	path := filepath.Join(t.TempDir(), "agent2upgrade.log")
	var buf bytes.Buffer
	require.NoError(t, Set(Output(&buf)))
	require.NoError(t, Set(File(path)))

	CloseFile()
	assert.Nil(t, root.file)
	New("upgrade").Info("after-close")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "after-close")
	assert.Contains(t, buf.String(), "after-close")
}

func TestOutput_ClosesOpenFile(t *testing.T) {
	withRootLogger(t)
	path := filepath.Join(t.TempDir(), "agent2upgrade.log")
	require.NoError(t, Set(Output(&bytes.Buffer{})))
	require.NoError(t, Set(File(path)))

	var next bytes.Buffer
	require.NoError(t, Set(Output(&next)))
	assert.Nil(t, root.file)
	New("upgrade").Info("redirected")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "redirected")
	assert.Equal(t, 1, strings.Count(next.String(), "redirected"))
}
