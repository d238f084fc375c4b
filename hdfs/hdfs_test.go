package hdfs

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/omnifs"
)

// Everything here runs without a namenode; the connection is dialed lazily
// and none of these paths reach it.

func TestNew(t *testing.T) {
	fs, err := New(context.Background(), omnifs.Params{
		Netloc:  "nn1:8020,nn2:8020",
		Path:    "/data/train",
		Options: map[string]string{"user": "etl"},
	})
	require.NoError(t, err)

	assert.Equal(t, "nn1:8020,nn2:8020", fs.addr)
	assert.Equal(t, "etl", fs.user)
	assert.Equal(t, "/data/train", fs.root)
	assert.Nil(t, fs.client)
}

func TestResolve(t *testing.T) {
	fs, err := New(context.Background(), omnifs.Params{Netloc: "nn:8020", Path: "/data"})
	require.NoError(t, err)

	assert.Equal(t, "/data/x.bin", fs.resolve("x.bin"))
	assert.Equal(t, "/data", fs.resolve(""))

	sub, err := fs.SubFS("train")
	require.NoError(t, err)
	assert.Equal(t, "/data/train/x.bin", sub.(*HDFS).resolve("x.bin"))
}

func TestSubFS(t *testing.T) {
	fs, err := New(context.Background(), omnifs.Params{Netloc: "nn:8020", Path: "/data"})
	require.NoError(t, err)

	sub, err := fs.SubFS("train")
	require.NoError(t, err)
	assert.Nil(t, sub.(*HDFS).client)

	_, err = fs.SubFS("../other")
	var perr *omnifs.InvalidPathError
	assert.ErrorAs(t, err, &perr)
}

func TestGlobNotSupported(t *testing.T) {
	fs, err := New(context.Background(), omnifs.Params{Netloc: "nn:8020"})
	require.NoError(t, err)

	_, err = fs.Glob(context.Background(), "*.bin")
	assert.ErrorIs(t, err, omnifs.ErrNotSupported)
}

func TestCloseWithoutConnection(t *testing.T) {
	fs, err := New(context.Background(), omnifs.Params{Netloc: "nn:8020"})
	require.NoError(t, err)

	require.NoError(t, fs.Close())
	require.NoError(t, fs.Close())
}
