package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/taskmaster/assistant/internal/domain/entities"
	"github.com/taskmaster/assistant/internal/infrastructure/logger"
	"github.com/taskmaster/assistant/internal/ports"
)

// NoteService handles note operations
type NoteService struct {
	noteRepo ports.NoteRepository
	logger   *logger.Logger
}

// NewNoteService creates a new note service
func NewNoteService(noteRepo ports.NoteRepository, logger *logger.Logger) *NoteService {
	return &NoteService{
		noteRepo: noteRepo,
		logger:   logger.WithComponent("notes"),
	}
}

// CreateNote creates a new note
func (s *NoteService) CreateNote(ctx context.Context, userID uuid.UUID, req ports.CreateNoteRequest) (*entities.Note, error) {
	if strings.TrimSpace(req.Content) == "" {
		return nil, entities.Invalid("content is required")
	}

	note := &entities.Note{
		UserID:  userID,
		Content: req.Content,
		Tags:    normalizeTags(req.Tags),
	}

	if err := s.noteRepo.Create(ctx, note); err != nil {
		return nil, fmt.Errorf("failed to create note: %w", err)
	}

	s.logger.Infow("Note created", "note_id", note.ID, "user_id", userID)
	return note, nil
}

// GetNote retrieves a note by ID
func (s *NoteService) GetNote(ctx context.Context, userID uuid.UUID, id int64) (*entities.Note, error) {
	return s.noteRepo.GetByID(ctx, userID, id)
}

// UpdateNote replaces the content and/or tags of a note
func (s *NoteService) UpdateNote(ctx context.Context, userID uuid.UUID, id int64, req ports.UpdateNoteRequest) (*entities.Note, error) {
	note, err := s.noteRepo.GetByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if req.Content != nil {
		if strings.TrimSpace(*req.Content) == "" {
			return nil, entities.Invalid("content must not be empty")
		}
		note.Content = *req.Content
	}
	if req.Tags != nil {
		note.Tags = normalizeTags(req.Tags)
	}

	if err := s.noteRepo.Update(ctx, note); err != nil {
		if errors.Is(err, entities.ErrNoteNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update note: %w", err)
	}

	return note, nil
}

// DeleteNote deletes a note
func (s *NoteService) DeleteNote(ctx context.Context, userID uuid.UUID, id int64) error {
	if err := s.noteRepo.Delete(ctx, userID, id); err != nil {
		return err
	}

	s.logger.Infow("Note deleted", "note_id", id, "user_id", userID)
	return nil
}

// ListNotes lists the user's notes, newest first
func (s *NoteService) ListNotes(ctx context.Context, userID uuid.UUID, filter ports.NoteFilter) ([]*entities.Note, error) {
	notes, err := s.noteRepo.List(ctx, userID, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list notes: %w", err)
	}
	return notes, nil
}

// SearchNotes matches content case-insensitively against query, or any of
// the given tags against the note's tags. With neither, nothing matches.
func (s *NoteService) SearchNotes(ctx context.Context, userID uuid.UUID, query string, tags []string) ([]*entities.Note, error) {
	query = strings.TrimSpace(query)
	var cleaned []string
	for _, t := range tags {
		if t = strings.TrimSpace(t); t != "" {
			cleaned = append(cleaned, t)
		}
	}

	if query == "" && len(cleaned) == 0 {
		return []*entities.Note{}, nil
	}

	notes, err := s.noteRepo.Search(ctx, userID, query, cleaned)
	if err != nil {
		return nil, fmt.Errorf("failed to search notes: %w", err)
	}
	return notes, nil
}

// normalizeTags rewrites a tag list as "a,b,c"; an empty list becomes nil.
func normalizeTags(raw *string) *string {
	if raw == nil {
		return nil
	}
	tags := entities.SplitTags(*raw)
	if len(tags) == 0 {
		return nil
	}
	joined := strings.Join(tags, ",")
	return &joined
}
