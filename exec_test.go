package inodefs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecLine_Script(t *testing.T) {
	fsys := format(t, 1024)
	s := fsys.Session()

	script := []string{
		"# build a nested tree, then copy and link the file",
		"mkdir test1",
		"go test1",
		"make_directory test2",
		"change_directory test2",
		"",
		"mk test3 3",
		"cp test3 ..",
		"ln test3 ../..",
	}
	for _, line := range script {
		info, err := ExecLine(s, line)
		require.NoError(t, err, line)
		assert.Nil(t, info, line)
	}

	info, err := Exec(s, "szdir")
	require.NoError(t, err)
	require.NotNil(t, info)
	assert.Equal(t, "/test1/test2", info.Path)
	assert.Equal(t, []string{"test3"}, info.ChildNames())

	info, err = Exec(s, "sz", "../test3")
	require.NoError(t, err)
	assert.Equal(t, "file", info.Kind)
	assert.Equal(t, uint64(3), info.Blocks)

	info, err = Exec(s, "szfs")
	require.NoError(t, err)
	assert.Equal(t, []string{"test1", "test3"}, info.ChildNames())
}

func TestExec_Mutations(t *testing.T) {
	fsys := format(t, 32)
	s := fsys.NewSession()

	steps := [][]string{
		{"mk", "a"},
		{"mkdir", "d", "2"},
		{"mv", "a", "d"},
		{"ed", "d/a", "b"},
		{"rm", "d/b"},
		{"rmdir", "d"},
	}
	for _, step := range steps {
		_, err := Exec(s, step[0], step[1:]...)
		require.NoError(t, err, step)
	}

	info, err := Exec(s, "info")
	require.NoError(t, err)
	assert.Empty(t, info.Children)
	assert.Equal(t, uint64(1), info.Blocks)
}

func TestExec_DefaultSize(t *testing.T) {
	fsys := format(t, 16)
	_, err := Exec(fsys.Session(), "make_file", "f")
	require.NoError(t, err)

	info, err := fsys.FileInfo("f")
	require.NoError(t, err)
	assert.Equal(t, uint64(DefaultSize), info.Blocks)
}

func TestExec_Errors(t *testing.T) {
	fsys := format(t, 16)
	s := fsys.Session()

	_, err := Exec(s, "format")
	assert.True(t, IsCode(err, CodeNotImplemented))

	_, err = Exec(s, "cp", "only-one")
	assert.True(t, IsCode(err, CodeInvalidInput))

	_, err = Exec(s, "szfs", "extra")
	assert.True(t, IsCode(err, CodeInvalidInput))

	_, err = Exec(s, "mk", "f", "lots")
	assert.True(t, IsCode(err, CodeInvalidInput))

	_, err = Exec(s, "mk", "f", "0")
	assert.True(t, IsCode(err, CodeInvalidInput))

	_, err = Exec(s, "rm", "missing")
	assert.True(t, IsCode(err, CodeNotFound))
}
