package version

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turbosearch/ftcore/internal/codec"
	"github.com/turbosearch/ftcore/internal/kv"
)

func TestReadMissingStampReturnsCurrent(t *testing.T) {
	dir := t.TempDir()
	s, err := Read(dir)
	require.NoError(t, err)
	assert.Equal(t, Current, s)
}

func TestWriteRead(t *testing.T) {
	dir := t.TempDir()
	want := Stamp{Major: 2, Minor: 3, Patch: 4}
	require.NoError(t, Write(dir, want))

	got, err := Read(dir)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestUpgradeRefusesNewerOnDiskMajor(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Write(dir, Stamp{Major: Current.Major + 1}))

	env, err := kv.Open(filepath.Join(dir, "data"), kv.DefaultOptions())
	require.NoError(t, err)
	defer env.Close()

	err = Upgrade(env, dir)
	require.Error(t, err)
}

func TestApplySkipsAlreadyAppliedStep(t *testing.T) {
	dir := t.TempDir()
	env, err := kv.Open(filepath.Join(dir, "data"), kv.DefaultOptions())
	require.NoError(t, err)
	defer env.Close()

	calls := 0
	orig := steps
	defer func() { steps = orig }()
	steps = nil
	Register(Step{Name: "add-marker-field", Up: func(tx kv.Tx) error {
		calls++
		return tx.Bucket(codec.BucketMain).Put([]byte("marker"), []byte{1})
	}})

	require.NoError(t, Apply(env))
	require.NoError(t, Apply(env))
	assert.Equal(t, 1, calls)
}

func TestStampPathIsUnderDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Write(dir, Current))
	_, err := os.Stat(filepath.Join(dir, "version"))
	require.NoError(t, err)
}
