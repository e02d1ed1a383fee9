package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWriter_BufferIsNotDecorated(t *testing.T) {
	var buf bytes.Buffer
	w := New(&buf)

	w.Success("done")
	w.Statusf("🔍", "found %d", 3)
	w.Status("", "indented")

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	assert.Equal(t, "done", lines[0])
	assert.Equal(t, "found 3", lines[1])
	assert.Equal(t, "   indented", lines[2])
}

func TestWriter_NewPlainNeverDecorates(t *testing.T) {
	var buf bytes.Buffer
	w := NewPlain(&buf)
	w.Error("boom")
	assert.Equal(t, "boom\n", buf.String())
}

func TestIsTTY_NilAndBuffer(t *testing.T) {
	assert.False(t, IsTTY(nil))
	assert.False(t, IsTTY(&bytes.Buffer{}))
}
