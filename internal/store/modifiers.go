package store

import (
	"context"
	"database/sql"

	"menuscan/internal/models"

	"github.com/lib/pq"
)

// ModifierLexicon is the read-only modifier table capability.
type ModifierLexicon interface {
	// ListModifiers returns all modifiers whose type is not in excludeTypes,
	// ordered by token length descending then declared priority descending.
	ListModifiers(ctx context.Context, excludeTypes ...models.ModifierType) ([]models.Modifier, error)
}

// PostgresModifierLexicon implements ModifierLexicon over a postgres
// modifiers table.
type PostgresModifierLexicon struct {
	db *sql.DB
}

func NewPostgresModifierLexicon(db *sql.DB) *PostgresModifierLexicon {
	return &PostgresModifierLexicon{db: db}
}

const listModifiersQuery = `
	SELECT text_ko, type, semantic_key, priority, translation_en
	FROM modifiers
	WHERE NOT (type = ANY($1))
	ORDER BY char_length(text_ko) DESC, priority DESC, text_ko ASC`

func (l *PostgresModifierLexicon) ListModifiers(ctx context.Context, excludeTypes ...models.ModifierType) ([]models.Modifier, error) {
	excluded := make([]string, 0, len(excludeTypes))
	for _, t := range excludeTypes {
		excluded = append(excluded, string(t))
	}

	rows, err := l.db.QueryContext(ctx, listModifiersQuery, pq.Array(excluded))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var modifiers []models.Modifier
	for rows.Next() {
		var m models.Modifier
		var semanticKey, translation sql.NullString
		if err := rows.Scan(&m.Text, &m.Type, &semanticKey, &m.Priority, &translation); err != nil {
			return nil, err
		}
		m.SemanticKey = semanticKey.String
		m.Translation = translation.String
		modifiers = append(modifiers, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return modifiers, nil
}
