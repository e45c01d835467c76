package rssi

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func writeFixture(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "rssi.dat")
	assert.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestInterpolateBetweenPoints(t *testing.T) {
	path := writeFixture(t, "# comment\n0 -120\n100 -20\n")
	tbl, err := New(path, 0)
	assert.NoError(t, err)
	defer tbl.Stop()

	assert.Equal(t, -70, tbl.Interpolate(50))
}

func TestInterpolateClampsBelowRange(t *testing.T) {
	path := writeFixture(t, "10 -100\n20 -50\n")
	tbl, err := New(path, 0)
	assert.NoError(t, err)
	defer tbl.Stop()

	assert.Equal(t, -100, tbl.Interpolate(0))
}

func TestInterpolateClampsAboveRange(t *testing.T) {
	path := writeFixture(t, "10 -100\n20 -50\n")
	tbl, err := New(path, 0)
	assert.NoError(t, err)
	defer tbl.Stop()

	assert.Equal(t, -50, tbl.Interpolate(99))
}

func TestInterpolateExactPoint(t *testing.T) {
	path := writeFixture(t, "10 -100\n20 -50\n")
	tbl, err := New(path, 0)
	assert.NoError(t, err)
	defer tbl.Stop()

	assert.Equal(t, -100, tbl.Interpolate(10))
}
