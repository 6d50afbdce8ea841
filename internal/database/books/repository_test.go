package books

import (
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/bookshelf/internal/entities"
)

func setupTestDB(t *testing.T) (*Repository, *gorm.DB) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "books.db")

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&entities.Book{}))

	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	})

	return NewRepository(db), db
}

func ptr(v float64) *float64 { return &v }

func TestRepository_AddAndGet(t *testing.T) {
	repo, _ := setupTestDB(t)

	id, err := repo.Add("War and Peace", "Leo Tolstoy", "Novel")
	require.NoError(t, err)
	assert.NotZero(t, id)

	book, err := repo.Get(id)
	require.NoError(t, err)
	assert.Equal(t, id, book.ID)
	assert.Equal(t, "War and Peace", book.Title)
	assert.Equal(t, "Leo Tolstoy", book.Author)
	assert.Equal(t, "Novel", book.Genre)
	assert.Nil(t, book.Rating)
	assert.Nil(t, book.Popularity)
}

func TestRepository_AddTrimsFields(t *testing.T) {
	repo, _ := setupTestDB(t)

	id, err := repo.Add("  1984 ", "\tGeorge Orwell\n", "  Dystopia ")
	require.NoError(t, err)

	book, err := repo.Get(id)
	require.NoError(t, err)
	assert.Equal(t, "1984", book.Title)
	assert.Equal(t, "George Orwell", book.Author)
	assert.Equal(t, "Dystopia", book.Genre)
}

func TestRepository_AddAllowsEmptyGenre(t *testing.T) {
	repo, _ := setupTestDB(t)

	id, err := repo.Add("Untitled Notes", "Anonymous", "")
	require.NoError(t, err)

	book, err := repo.Get(id)
	require.NoError(t, err)
	assert.Empty(t, book.Genre)
}

func TestRepository_AddRejectsMissingFields(t *testing.T) {
	tests := []struct {
		name   string
		title  string
		author string
	}{
		{name: "empty title", title: "", author: "Author"},
		{name: "empty author", title: "Title", author: ""},
		{name: "whitespace title", title: "   ", author: "Author"},
		{name: "whitespace author", title: "Title", author: "\t\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, _ := setupTestDB(t)

			id, err := repo.Add(tt.title, tt.author, "Genre")
			assert.ErrorIs(t, err, entities.ErrValidation)
			assert.Zero(t, id)

			all, err := repo.ListAll()
			require.NoError(t, err)
			assert.Empty(t, all)
		})
	}
}

func TestRepository_IDsAreUniqueAndIncreasing(t *testing.T) {
	repo, _ := setupTestDB(t)

	var previous uint
	for _, title := range []string{"A", "B", "C", "D"} {
		id, err := repo.Add(title, "Author", "")
		require.NoError(t, err)
		assert.Greater(t, id, previous)
		previous = id
	}
}

func TestRepository_IDsAreNeverReused(t *testing.T) {
	repo, _ := setupTestDB(t)

	first, err := repo.Add("First", "Author", "")
	require.NoError(t, err)
	last, err := repo.Add("Last", "Author", "")
	require.NoError(t, err)

	removed, err := repo.Delete(last)
	require.NoError(t, err)
	require.True(t, removed)

	next, err := repo.Add("Next", "Author", "")
	require.NoError(t, err)
	assert.Greater(t, next, last)
	assert.Greater(t, next, first)
}

func TestRepository_GetMissing(t *testing.T) {
	repo, _ := setupTestDB(t)

	book, err := repo.Get(42)
	assert.ErrorIs(t, err, entities.ErrNotFound)
	assert.Nil(t, book)
}

func TestRepository_ListAll(t *testing.T) {
	t.Run("empty store returns empty slice", func(t *testing.T) {
		repo, _ := setupTestDB(t)

		all, err := repo.ListAll()
		require.NoError(t, err)
		assert.NotNil(t, all)
		assert.Empty(t, all)
	})

	t.Run("orders by ascending id", func(t *testing.T) {
		repo, _ := setupTestDB(t)

		for _, title := range []string{"Zeta", "Alpha", "Mu"} {
			_, err := repo.Add(title, "Author", "")
			require.NoError(t, err)
		}

		all, err := repo.ListAll()
		require.NoError(t, err)
		require.Len(t, all, 3)
		assert.Equal(t, "Zeta", all[0].Title)
		assert.Equal(t, "Alpha", all[1].Title)
		assert.Equal(t, "Mu", all[2].Title)
		assert.Less(t, all[0].ID, all[1].ID)
		assert.Less(t, all[1].ID, all[2].ID)
	})
}

func TestRepository_DeleteIsIdempotent(t *testing.T) {
	repo, _ := setupTestDB(t)

	id, err := repo.Add("Temporary", "Author", "")
	require.NoError(t, err)

	removed, err := repo.Delete(id)
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = repo.Delete(id)
	require.NoError(t, err)
	assert.False(t, removed)

	_, err = repo.Get(id)
	assert.ErrorIs(t, err, entities.ErrNotFound)
}

func TestRepository_AddWithRating(t *testing.T) {
	repo, _ := setupTestDB(t)

	id, err := repo.AddWithRating("Dune", "Frank Herbert", "Sci-Fi", ptr(9.5))
	require.NoError(t, err)

	book, err := repo.Get(id)
	require.NoError(t, err)
	require.NotNil(t, book.Rating)
	assert.Equal(t, 9.5, *book.Rating)

	_, err = repo.AddWithRating("Bad", "Author", "", ptr(11))
	assert.ErrorIs(t, err, entities.ErrValidation)

	count, err := repo.Count()
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestRepository_SetRating(t *testing.T) {
	repo, _ := setupTestDB(t)

	id, err := repo.Add("Dune", "Frank Herbert", "Sci-Fi")
	require.NoError(t, err)

	require.NoError(t, repo.SetRating(id, ptr(7)))
	book, err := repo.Get(id)
	require.NoError(t, err)
	require.NotNil(t, book.Rating)
	assert.Equal(t, 7.0, *book.Rating)

	require.NoError(t, repo.SetRating(id, nil))
	book, err = repo.Get(id)
	require.NoError(t, err)
	assert.Nil(t, book.Rating)

	assert.ErrorIs(t, repo.SetRating(id, ptr(-1)), entities.ErrValidation)
	assert.ErrorIs(t, repo.SetRating(999, ptr(5)), entities.ErrNotFound)
}

func TestRepository_IncrementPopularity(t *testing.T) {
	repo, _ := setupTestDB(t)

	id, err := repo.Add("Dune", "Frank Herbert", "Sci-Fi")
	require.NoError(t, err)

	value, err := repo.IncrementPopularity(id)
	require.NoError(t, err)
	assert.Equal(t, int64(1), value)

	value, err = repo.IncrementPopularity(id)
	require.NoError(t, err)
	assert.Equal(t, int64(2), value)

	book, err := repo.Get(id)
	require.NoError(t, err)
	require.NotNil(t, book.Popularity)
	assert.Equal(t, int64(2), *book.Popularity)

	_, err = repo.IncrementPopularity(999)
	assert.ErrorIs(t, err, entities.ErrNotFound)
}

func TestRepository_ConcurrentAddsGetDistinctIDs(t *testing.T) {
	repo, _ := setupTestDB(t)

	const writers = 8
	ids := make(chan uint, writers)
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, err := repo.Add("Concurrent", "Writer", "")
			assert.NoError(t, err)
			ids <- id
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[uint]bool)
	for id := range ids {
		assert.False(t, seen[id], "duplicate id %d", id)
		seen[id] = true
	}
	assert.Len(t, seen, writers)
}

func TestRepository_StorageFailure(t *testing.T) {
	repo, db := setupTestDB(t)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	_, err = repo.ListAll()
	assert.ErrorIs(t, err, entities.ErrStorage)

	_, err = repo.Add("Title", "Author", "")
	assert.ErrorIs(t, err, entities.ErrStorage)
	assert.NotErrorIs(t, err, entities.ErrValidation)

	_, err = repo.Get(1)
	assert.ErrorIs(t, err, entities.ErrStorage)
}
