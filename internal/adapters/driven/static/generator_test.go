package static

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maglar0/create-par2/internal/core/ports/driven"
)

func TestGenerator_Name(t *testing.T) {
	assert.Equal(t, "static", NewGenerator().Name())
}

func TestGenerator_Generate_ExactTotal(t *testing.T) {
	dir := t.TempDir()

	arts, err := NewGenerator().Generate(context.Background(), driven.GenerateRequest{
		GroupIndex:  4,
		Dir:         dir,
		TargetBytes: 10 << 20,
	})

	require.NoError(t, err)
	require.Len(t, arts, 3)

	var total int64
	for _, a := range arts {
		assert.Equal(t, 4, a.OriginGroup)
		info, err := os.Stat(a.Path)
		require.NoError(t, err)
		assert.Equal(t, info.Size(), a.Size)
		total += a.Size
	}
	assert.Equal(t, int64(10<<20), total)

	assert.Equal(t, "recovery-vol005.fill000", filepath.Base(arts[0].Path))
	assert.Equal(t, "recovery-vol005.fill002", filepath.Base(arts[2].Path))
}

func TestGenerator_Generate_SmallTarget(t *testing.T) {
	arts, err := NewGenerator().Generate(context.Background(), driven.GenerateRequest{
		Dir:         t.TempDir(),
		TargetBytes: 123,
	})

	require.NoError(t, err)
	require.Len(t, arts, 1)
	assert.Equal(t, int64(123), arts[0].Size)
}

func TestGenerator_Generate_ZeroTarget(t *testing.T) {
	arts, err := NewGenerator().Generate(context.Background(), driven.GenerateRequest{
		Dir:         t.TempDir(),
		TargetBytes: 0,
	})

	require.NoError(t, err)
	assert.Empty(t, arts)
}
