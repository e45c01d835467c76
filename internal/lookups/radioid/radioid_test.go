package radioid

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/USA-RedDragon/dvmcore/internal/lookups/radiodb"
)

func writeFixture(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "RID_ACL.csv")
	assert.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestFindReturnsExplicitEntry(t *testing.T) {
	path := writeFixture(t, "# comment\n3120001,true\n3120002,false\n")
	l, err := New(path, 0, true)
	assert.NoError(t, err)
	defer l.Stop()

	got := l.Find(3120001)
	assert.False(t, got.IsDefault)
	assert.True(t, got.Enabled)

	got = l.Find(3120002)
	assert.False(t, got.IsDefault)
	assert.False(t, got.Enabled)
}

func TestFindReturnsDefaultForUnknownID(t *testing.T) {
	path := writeFixture(t, "3120001,true\n")
	l, err := New(path, 0, true)
	assert.NoError(t, err)
	defer l.Stop()

	got := l.Find(9999999)
	assert.True(t, got.IsDefault)
}

func TestPermittedHonorsACLModeForDefaults(t *testing.T) {
	path := writeFixture(t, "3120001,false\n")

	restrictive, err := New(path, 0, true)
	assert.NoError(t, err)
	defer restrictive.Stop()
	assert.False(t, restrictive.Permitted(9999999))
	assert.False(t, restrictive.Permitted(3120001))

	permissive, err := New(path, 0, false)
	assert.NoError(t, err)
	defer permissive.Stop()
	assert.True(t, permissive.Permitted(9999999))
	assert.False(t, permissive.Permitted(3120001))
}

func TestToggleEntryAndEraseEntry(t *testing.T) {
	path := writeFixture(t, "3120001,false\n")
	l, err := New(path, 0, true)
	assert.NoError(t, err)
	defer l.Stop()

	l.ToggleEntry(3120001, true)
	assert.True(t, l.Find(3120001).Enabled)

	l.EraseEntry(3120001)
	assert.True(t, l.Find(3120001).IsDefault)
}

func TestCommitRoundTrips(t *testing.T) {
	path := writeFixture(t, "3120001,true\n")
	l, err := New(path, 0, true)
	assert.NoError(t, err)
	defer l.Stop()

	l.AddEntry(3120002, true)
	assert.NoError(t, l.Commit())

	l2, err := New(path, 0, true)
	assert.NoError(t, err)
	defer l2.Stop()
	assert.False(t, l2.Find(3120002).IsDefault)
}

func TestDescribeFallsBackWithoutMetadata(t *testing.T) {
	path := writeFixture(t, "3120001,true\n")
	l, err := New(path, 0, true)
	assert.NoError(t, err)
	defer l.Stop()

	assert.Equal(t, "3120001", l.Describe(3120001))
}

func TestDescribeEnrichesWithMetadata(t *testing.T) {
	path := writeFixture(t, "3120001,true\n")
	l, err := New(path, 0, true)
	assert.NoError(t, err)
	defer l.Stop()

	db, err := radiodb.Open(radiodb.DriverSQLite, "")
	assert.NoError(t, err)
	assert.NoError(t, db.UnpackBuiltIn())
	l.SetMetadata(db)

	assert.Equal(t, "3120001 (W1AW, Newington)", l.Describe(3120001))
	assert.Equal(t, "555", l.Describe(555))
}
