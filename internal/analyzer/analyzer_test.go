package analyzer

import (
	"testing"

	"github.com/blevesearch/bleve/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	serrors "github.com/searchsync/searchsync/internal/errors"
)

func TestBleveName_Builtins(t *testing.T) {
	for _, name := range Names() {
		bn, err := BleveName(name)
		require.NoError(t, err)
		assert.NotEmpty(t, bn)
	}
}

func TestBleveName_EmptyResolvesToDefault(t *testing.T) {
	bn, err := BleveName("")
	require.NoError(t, err)

	def, err := BleveName(DefaultName)
	require.NoError(t, err)
	assert.Equal(t, def, bn)
}

func TestBleveName_UnknownFails(t *testing.T) {
	_, err := BleveName("metaphone")
	require.Error(t, err)
	assert.Equal(t, serrors.ErrCodeConfigInvalid, serrors.GetCode(err))
}

func TestTokenize_EnglishStems(t *testing.T) {
	m := bleve.NewIndexMapping()

	bn, err := BleveName("english")
	require.NoError(t, err)

	terms, err := Tokenize(m, bn, "jumping")
	require.NoError(t, err)
	require.Len(t, terms, 1)

	// Stemming normalizes "jumping" and "jump" to the same term.
	single, err := Tokenize(m, bn, "jump")
	require.NoError(t, err)
	require.Len(t, single, 1)
	assert.Equal(t, single[0], terms[0])
}

func TestTokenize_SimpleDoesNotStem(t *testing.T) {
	m := bleve.NewIndexMapping()

	bn, err := BleveName("simple")
	require.NoError(t, err)

	terms, err := Tokenize(m, bn, "Jumping")
	require.NoError(t, err)
	assert.Equal(t, []string{"jumping"}, terms)
}

func TestTokenize_SplitsAndLowercases(t *testing.T) {
	m := bleve.NewIndexMapping()

	bn, err := BleveName("simple")
	require.NoError(t, err)

	terms, err := Tokenize(m, bn, "Hello World")
	require.NoError(t, err)
	assert.Equal(t, []string{"hello", "world"}, terms)
}

func TestTokenize_EmptyText(t *testing.T) {
	m := bleve.NewIndexMapping()

	bn, err := BleveName("standard")
	require.NoError(t, err)

	terms, err := Tokenize(m, bn, "   ")
	require.NoError(t, err)
	assert.Empty(t, terms)
}
