package store

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"menuscan/internal/models"
)

var modifierColumns = []string{"text_ko", "type", "semantic_key", "priority", "translation_en"}

func TestListModifiers_ReturnsLexiconOrder(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	rows := sqlmock.NewRows(modifierColumns).
		AddRow("할머니", "emotion", "grandma", 10, "grandma's").
		AddRow("원조", "emotion", "original", 8, "original").
		AddRow("왕", "size", "large", 5, "king-size")
	mock.ExpectQuery(`FROM modifiers`).
		WillReturnRows(rows)

	l := NewPostgresModifierLexicon(db)
	modifiers, err := l.ListModifiers(context.Background())

	require.NoError(t, err)
	require.Len(t, modifiers, 3)
	assert.Equal(t, "할머니", modifiers[0].Text)
	assert.Equal(t, models.ModifierEmotion, modifiers[0].Type)
	assert.Equal(t, "grandma", modifiers[0].SemanticKey)
	assert.Equal(t, "king-size", modifiers[2].Translation)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListModifiers_ExcludesTypes(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`FROM modifiers`).
		WithArgs("{\"ingredient\"}").
		WillReturnRows(sqlmock.NewRows(modifierColumns))

	l := NewPostgresModifierLexicon(db)
	modifiers, err := l.ListModifiers(context.Background(), models.ModifierIngredient)

	require.NoError(t, err)
	assert.Empty(t, modifiers)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListModifiers_NullableColumns(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	rows := sqlmock.NewRows(modifierColumns).
		AddRow("매운", "taste", nil, 3, nil)
	mock.ExpectQuery(`FROM modifiers`).
		WillReturnRows(rows)

	l := NewPostgresModifierLexicon(db)
	modifiers, err := l.ListModifiers(context.Background())

	require.NoError(t, err)
	require.Len(t, modifiers, 1)
	assert.Equal(t, "", modifiers[0].SemanticKey)
	assert.Equal(t, "", modifiers[0].Translation)
}

func TestListModifiers_QueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`FROM modifiers`).
		WillReturnError(errors.New("connection reset"))

	l := NewPostgresModifierLexicon(db)
	_, err = l.ListModifiers(context.Background())
	assert.Error(t, err)
}
