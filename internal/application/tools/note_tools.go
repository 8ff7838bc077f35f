package tools

import (
	"context"

	"github.com/google/uuid"

	"github.com/taskmaster/assistant/internal/domain/entities"
	"github.com/taskmaster/assistant/internal/ports"
)

type createNoteParams struct {
	Content string  `json:"content" validate:"required"`
	Tags    *string `json:"tags" validate:"omitempty,max=500"`
}

type listNotesParams struct{}

type searchNotesParams struct {
	Query string `json:"query" validate:"required"`
	Tags  string `json:"tags"`
}

type noteIDParams struct {
	NoteID int64 `json:"note_id" validate:"required,gt=0"`
}

func noteTools(notes ports.NoteService) []*Tool {
	return []*Tool{
		Define("create_note",
			"Create a note",
			object(props(
				"content", str("Note content"),
				"tags", str("Comma-separated tags"),
			), "content"),
			func(ctx context.Context, userID uuid.UUID, p *createNoteParams) (map[string]any, error) {
				note, err := notes.CreateNote(ctx, userID, ports.CreateNoteRequest{Content: p.Content, Tags: p.Tags})
				if err != nil {
					return nil, err
				}
				return noteView(note), nil
			}),

		Define("list_notes",
			"List all notes",
			object(props()),
			func(ctx context.Context, userID uuid.UUID, _ *listNotesParams) (map[string]any, error) {
				list, err := notes.ListNotes(ctx, userID, ports.NoteFilter{})
				if err != nil {
					return nil, err
				}
				return map[string]any{"notes": views(list, noteView), "count": len(list)}, nil
			}),

		Define("search_notes",
			"Search notes by content or tags",
			object(props(
				"query", str("Text to look for in note content"),
				"tags", str("Comma-separated tags; a note matching any of them is returned"),
			), "query"),
			func(ctx context.Context, userID uuid.UUID, p *searchNotesParams) (map[string]any, error) {
				list, err := notes.SearchNotes(ctx, userID, p.Query, entities.SplitTags(p.Tags))
				if err != nil {
					return nil, err
				}
				return map[string]any{"notes": views(list, noteView), "count": len(list)}, nil
			}),

		Define("delete_note",
			"Delete a note by ID",
			object(props(
				"note_id", integer("Note ID"),
			), "note_id"),
			func(ctx context.Context, userID uuid.UUID, p *noteIDParams) (map[string]any, error) {
				if err := notes.DeleteNote(ctx, userID, p.NoteID); err != nil {
					return nil, err
				}
				return deleted(p.NoteID, "Note deleted"), nil
			}),
	}
}
