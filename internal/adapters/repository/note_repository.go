package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/taskmaster/assistant/internal/domain/entities"
	"github.com/taskmaster/assistant/internal/ports"
)

const noteColumns = `id, user_id, content, tags, created_at, updated_at`

// NoteRepositoryImpl implements the NoteRepository interface
type NoteRepositoryImpl struct {
	db *sqlx.DB
}

// NewNoteRepository creates a new note repository
func NewNoteRepository(db *sqlx.DB) ports.NoteRepository {
	return &NoteRepositoryImpl{db: db}
}

func (r *NoteRepositoryImpl) Create(ctx context.Context, note *entities.Note) error {
	query := `
		INSERT INTO notes (user_id, content, tags)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query, note.UserID, note.Content, note.Tags).
		Scan(&note.ID, &note.CreatedAt, &note.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create note: %w", err)
	}

	return nil
}

func (r *NoteRepositoryImpl) GetByID(ctx context.Context, userID uuid.UUID, id int64) (*entities.Note, error) {
	query := `SELECT ` + noteColumns + ` FROM notes WHERE id = $1 AND user_id = $2`

	var note entities.Note
	err := r.db.GetContext(ctx, &note, query, id, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, entities.ErrNoteNotFound
		}
		return nil, fmt.Errorf("get note by id: %w", err)
	}

	return &note, nil
}

func (r *NoteRepositoryImpl) Update(ctx context.Context, note *entities.Note) error {
	query := `
		UPDATE notes
		SET content = $3, tags = $4, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1 AND user_id = $2
		RETURNING updated_at`

	err := r.db.QueryRowContext(ctx, query, note.ID, note.UserID, note.Content, note.Tags).
		Scan(&note.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return entities.ErrNoteNotFound
		}
		return fmt.Errorf("update note: %w", err)
	}

	return nil
}

func (r *NoteRepositoryImpl) Delete(ctx context.Context, userID uuid.UUID, id int64) error {
	query := `DELETE FROM notes WHERE id = $1 AND user_id = $2`

	result, err := r.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("delete note: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return entities.ErrNoteNotFound
	}

	return nil
}

func (r *NoteRepositoryImpl) List(ctx context.Context, userID uuid.UUID, filter ports.NoteFilter) ([]*entities.Note, error) {
	page := filter.Page.Normalize()
	query := `
		SELECT ` + noteColumns + `
		FROM notes
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3`

	notes := []*entities.Note{}
	if err := r.db.SelectContext(ctx, &notes, query, userID, page.Limit, page.Offset); err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}

	return notes, nil
}

// Search matches content by case-insensitive substring, or any of the given
// tags against the note's comma-delimited tag list. Either criterion may be empty.
func (r *NoteRepositoryImpl) Search(ctx context.Context, userID uuid.UUID, query string, tags []string) ([]*entities.Note, error) {
	var matchers []string
	args := []interface{}{userID}
	argIndex := 2

	if query != "" {
		matchers = append(matchers, fmt.Sprintf("content ILIKE $%d", argIndex))
		args = append(args, "%"+escapeLike(query)+"%")
		argIndex++
	}

	if len(tags) > 0 {
		lowered := make([]string, len(tags))
		for i, t := range tags {
			lowered[i] = strings.ToLower(t)
		}
		matchers = append(matchers, fmt.Sprintf(
			`EXISTS (SELECT 1 FROM unnest(string_to_array(lower(coalesce(tags, '')), ',')) AS t WHERE btrim(t) = ANY($%d))`,
			argIndex))
		args = append(args, pq.Array(lowered))
	}

	if len(matchers) == 0 {
		return []*entities.Note{}, nil
	}

	stmt := fmt.Sprintf(`
		SELECT %s
		FROM notes
		WHERE user_id = $1 AND (%s)
		ORDER BY created_at DESC, id DESC
		LIMIT %d`,
		noteColumns, strings.Join(matchers, " OR "), ports.DefaultPageLimit)

	notes := []*entities.Note{}
	if err := r.db.SelectContext(ctx, &notes, stmt, args...); err != nil {
		return nil, fmt.Errorf("search notes: %w", err)
	}

	return notes, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
