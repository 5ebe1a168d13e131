package repl

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFixture(t *testing.T, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fixture.ssair")
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	return path
}

func TestReplLoadStepRun(t *testing.T) {
	path := writeFixture(t, `
function add/2(A, B) {
  bb0:
    X~1 = {bif,+} A, B
    ret X~1
}
`)
	var out bytes.Buffer
	s := newSession()

	require.NoError(t, s.load(path, &out))
	require.NotNil(t, s.fn)
	assert.Equal(t, 0, s.position)

	require.NoError(t, s.step(&out))
	assert.Equal(t, 1, s.position)

	require.NoError(t, s.run(&out))
	assert.Equal(t, len(s.passes), s.position)

	out.Reset()
	require.NoError(t, s.verify(&out))
	assert.Contains(t, out.String(), "ok:")
}

func TestReplStepWithoutLoadErrors(t *testing.T) {
	var out bytes.Buffer
	s := newSession()
	err := s.step(&out)
	assert.Error(t, err)
}

func TestReplLoadRejectsMultiFunctionFiles(t *testing.T) {
	path := writeFixture(t, `
function a/0() {
  bb0:
    ret true
}
function b/0() {
  bb0:
    ret false
}
`)
	var out bytes.Buffer
	s := newSession()
	err := s.load(path, &out)
	assert.Error(t, err)
}

func TestReplDispatchUnknownCommand(t *testing.T) {
	var out bytes.Buffer
	s := newSession()
	err := s.dispatch(":frobnicate", &out)
	assert.Error(t, err)
}
