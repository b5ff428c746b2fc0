package articlesdb_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goreforced/YCTNewsBot-TG/internal/articles"
	db "github.com/goreforced/YCTNewsBot-TG/internal/articlesdb"
)

func openTestDB(t *testing.T) *db.DB {
	t.Helper()
	d, err := db.Open(filepath.Join(t.TempDir(), "articles.db"))
	require.NoError(t, err)
	t.Cleanup(func() { d.Close() })
	return d
}

func TestAddAndExists(t *testing.T) {
	d := openTestDB(t)

	tests := []articles.Article{
		{Title: "Заголовок", Summary: "Текст новости", Link: "http://a/1", Source: "a"},
		{Title: "Second", Summary: "Text", Link: "http://a/2", Source: "a"},
	}

	for _, a := range tests {
		added, err := d.Add(a)
		require.NoError(t, err)
		assert.True(t, added)

		exists, err := d.Exists(articles.Fingerprint(a.Link))
		require.NoError(t, err)
		assert.True(t, exists)
	}

	exists, err := d.Exists(articles.Fingerprint("http://a/999"))
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestAddIsIdempotent(t *testing.T) {
	d := openTestDB(t)

	a := articles.Article{Title: "X", Summary: "S", Link: "http://a/1", Source: "a"}

	added, err := d.Add(a)
	require.NoError(t, err)
	assert.True(t, added)

	// повторная вставка не создаёт вторую запись
	added, err = d.Add(a)
	require.NoError(t, err)
	assert.False(t, added)

	count, err := d.Count()
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestAllAndClear(t *testing.T) {
	d := openTestDB(t)

	_, err := d.Add(articles.Article{Title: "X", Summary: "S", Link: "http://a/1", Source: "a"})
	require.NoError(t, err)
	_, err = d.Add(articles.Article{Title: "Y", Summary: "S", Link: "http://a/2", Source: "a"})
	require.NoError(t, err)

	all, err := d.All()
	require.NoError(t, err)
	assert.Len(t, all, 2)

	require.NoError(t, d.ClearAll())

	count, err := d.Count()
	require.NoError(t, err)
	assert.EqualValues(t, 0, count)
}
