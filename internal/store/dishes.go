// Package store provides read-only access to the canonical dish and modifier
// reference data. Similarity search relies on the pg_trgm extension.
package store

import (
	"context"
	"database/sql"
	"errors"

	"menuscan/internal/models"

	"github.com/lib/pq"
)

// DishStore is the canonical dish lookup capability consumed by the matching
// engine.
type DishStore interface {
	// ExactLookup returns the dish whose primary name or alias equals name,
	// or nil when none exists.
	ExactLookup(ctx context.Context, name string) (*models.CanonicalDish, error)

	// SimilarityLookup returns candidates with trigram similarity >= minScore,
	// ordered by score descending then id ascending. maxLengthDelta restricts
	// candidates to names within that many characters of the input length; a
	// negative delta disables the restriction.
	SimilarityLookup(ctx context.Context, name string, minScore float64, maxLengthDelta int) ([]models.ScoredDish, error)
}

const similarityCandidateLimit = 5

// PostgresDishStore implements DishStore over a postgres canonical_dishes
// table with a pg_trgm index on name_ko.
type PostgresDishStore struct {
	db *sql.DB
}

func NewPostgresDishStore(db *sql.DB) *PostgresDishStore {
	return &PostgresDishStore{db: db}
}

const exactLookupQuery = `
	SELECT id, name_ko, name_en, aliases, main_ingredients, allergens, spice_level, difficulty_score, image_url
	FROM canonical_dishes
	WHERE name_ko = $1 OR $1 = ANY(aliases)
	ORDER BY id
	LIMIT 1`

func (s *PostgresDishStore) ExactLookup(ctx context.Context, name string) (*models.CanonicalDish, error) {
	row := s.db.QueryRowContext(ctx, exactLookupQuery, name)

	dish, err := scanDish(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return dish, nil
}

// Ties on similarity score are broken by id so result ordering is stable
// across runs.
const similarityLookupQuery = `
	SELECT id, name_ko, name_en, aliases, main_ingredients, allergens, spice_level, difficulty_score, image_url,
	       similarity(name_ko, $1) AS sim
	FROM canonical_dishes
	WHERE similarity(name_ko, $1) >= $2
	  AND ($3 < 0 OR abs(char_length(name_ko) - char_length($1)) <= $3)
	ORDER BY sim DESC, id ASC
	LIMIT $4`

func (s *PostgresDishStore) SimilarityLookup(ctx context.Context, name string, minScore float64, maxLengthDelta int) ([]models.ScoredDish, error) {
	rows, err := s.db.QueryContext(ctx, similarityLookupQuery, name, minScore, maxLengthDelta, similarityCandidateLimit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []models.ScoredDish
	for rows.Next() {
		var scored models.ScoredDish
		dish, err := scanDish(func(dest ...interface{}) error {
			return rows.Scan(append(dest, &scored.Score)...)
		})
		if err != nil {
			return nil, err
		}
		scored.Dish = *dish
		results = append(results, scored)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

func scanDish(scan func(dest ...interface{}) error) (*models.CanonicalDish, error) {
	var d models.CanonicalDish
	var nameEn, imageURL sql.NullString

	err := scan(
		&d.ID,
		&d.Name,
		&nameEn,
		pq.Array(&d.Aliases),
		pq.Array(&d.MainIngredients),
		pq.Array(&d.Allergens),
		&d.SpiceLevel,
		&d.DifficultyScore,
		&imageURL,
	)
	if err != nil {
		return nil, err
	}

	d.NameEn = nameEn.String
	d.ImageURL = imageURL.String
	return &d, nil
}
