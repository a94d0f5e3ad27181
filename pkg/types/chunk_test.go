package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkIDFor(t *testing.T) {
	id := ChunkIDFor("octo/webapp", "src/main.py", 3)
	assert.Equal(t, "octo/webapp::src/main.py::3", id)
}

func TestHashContent(t *testing.T) {
	h1 := HashContent("def hello(): pass")
	h2 := HashContent("def hello(): pass")
	h3 := HashContent("def goodbye(): pass")

	assert.Equal(t, h1, h2, "identical content must hash identically")
	assert.NotEqual(t, h1, h3)
	assert.Len(t, h1, 64)
}

func validChunk() Chunk {
	content := "def hello():\n    return 1"
	return Chunk{
		ChunkID:     ChunkIDFor("octo/webapp", "main.py", 0),
		Repo:        "octo/webapp",
		FilePath:    "main.py",
		Content:     content,
		ContentHash: HashContent(content),
		ChunkType:   ChunkFunction,
		ChunkName:   "hello",
		Language:    "python",
		StartLine:   0,
		EndLine:     2,
	}
}

func TestChunkValidate(t *testing.T) {
	c := validChunk()
	require.NoError(t, c.Validate())

	t.Run("missing id", func(t *testing.T) {
		c := validChunk()
		c.ChunkID = ""
		assert.Error(t, c.Validate())
	})

	t.Run("inverted lines", func(t *testing.T) {
		c := validChunk()
		c.StartLine, c.EndLine = 5, 2
		assert.Error(t, c.Validate())
	})

	t.Run("bad chunk type", func(t *testing.T) {
		c := validChunk()
		c.ChunkType = "snippet"
		assert.Error(t, c.Validate())
	})

	t.Run("dimension mismatch", func(t *testing.T) {
		c := validChunk()
		c.Embedding = []float32{0.1, 0.2, 0.3}
		c.EmbeddingDim = 5
		assert.Error(t, c.Validate())

		c.EmbeddingDim = 3
		assert.NoError(t, c.Validate())
	})
}

func TestHasEmbedding(t *testing.T) {
	c := validChunk()
	assert.False(t, c.HasEmbedding())
	c.Embedding = []float32{0.5}
	assert.True(t, c.HasEmbedding())
}
