package store

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var dishColumns = []string{
	"id", "name_ko", "name_en", "aliases", "main_ingredients", "allergens",
	"spice_level", "difficulty_score", "image_url",
}

func newDishRows() *sqlmock.Rows {
	return sqlmock.NewRows(dishColumns)
}

func TestExactLookup_Hit(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	rows := newDishRows().AddRow(
		"dish-001", "김치찌개", "Kimchi Stew",
		"{김치찌게}", "{kimchi,pork}", "{}",
		3, 1, "https://img.example/kimchi.jpg",
	)
	mock.ExpectQuery(`SELECT id, name_ko, name_en, aliases`).
		WithArgs("김치찌개").
		WillReturnRows(rows)

	s := NewPostgresDishStore(db)
	dish, err := s.ExactLookup(context.Background(), "김치찌개")

	require.NoError(t, err)
	require.NotNil(t, dish)
	assert.Equal(t, "dish-001", dish.ID)
	assert.Equal(t, "김치찌개", dish.Name)
	assert.Equal(t, "Kimchi Stew", dish.NameEn)
	assert.Equal(t, []string{"김치찌게"}, dish.Aliases)
	assert.Equal(t, 3, dish.SpiceLevel)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExactLookup_Miss(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT id, name_ko, name_en, aliases`).
		WithArgs("없는메뉴").
		WillReturnRows(newDishRows())

	s := NewPostgresDishStore(db)
	dish, err := s.ExactLookup(context.Background(), "없는메뉴")

	require.NoError(t, err)
	assert.Nil(t, dish)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExactLookup_QueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT id, name_ko, name_en, aliases`).
		WithArgs("김치찌개").
		WillReturnError(errors.New("connection refused"))

	s := NewPostgresDishStore(db)
	dish, err := s.ExactLookup(context.Background(), "김치찌개")

	assert.Error(t, err)
	assert.Nil(t, dish)
}

func TestSimilarityLookup_ReturnsScoredCandidates(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	rows := sqlmock.NewRows(append(append([]string{}, dishColumns...), "sim")).
		AddRow(
			"dish-001", "김치찌개", "Kimchi Stew",
			"{}", "{kimchi}", "{}",
			3, 1, nil, 0.62,
		).
		AddRow(
			"dish-007", "김치볶음밥", "Kimchi Fried Rice",
			"{}", "{kimchi,rice}", "{}",
			2, 1, nil, 0.45,
		)
	mock.ExpectQuery(`similarity\(name_ko, \$1\)`).
		WithArgs("김치찌게", 0.4, 0, similarityCandidateLimit).
		WillReturnRows(rows)

	s := NewPostgresDishStore(db)
	results, err := s.SimilarityLookup(context.Background(), "김치찌게", 0.4, 0)

	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "김치찌개", results[0].Dish.Name)
	assert.InDelta(t, 0.62, results[0].Score, 1e-9)
	assert.Equal(t, "", results[0].Dish.ImageURL)
	assert.Greater(t, results[0].Score, results[1].Score)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSimilarityLookup_UnrestrictedLength(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`similarity\(name_ko, \$1\)`).
		WithArgs("족발", 0.7, -1, similarityCandidateLimit).
		WillReturnRows(sqlmock.NewRows(append(append([]string{}, dishColumns...), "sim")))

	s := NewPostgresDishStore(db)
	results, err := s.SimilarityLookup(context.Background(), "족발", 0.7, -1)

	require.NoError(t, err)
	assert.Empty(t, results)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSimilarityLookup_QueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`similarity\(name_ko, \$1\)`).
		WillReturnError(errors.New("timeout"))

	s := NewPostgresDishStore(db)
	_, err = s.SimilarityLookup(context.Background(), "김치찌개", 0.4, 0)
	assert.Error(t, err)
}
