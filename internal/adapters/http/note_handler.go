package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/taskmaster/assistant/internal/domain/entities"
	"github.com/taskmaster/assistant/internal/infrastructure/logger"
	"github.com/taskmaster/assistant/internal/ports"
)

// NoteHandler handles note requests
type NoteHandler struct {
	noteService ports.NoteService
	logger      *logger.Logger
}

// NewNoteHandler creates a new note handler
func NewNoteHandler(noteService ports.NoteService, logger *logger.Logger) *NoteHandler {
	return &NoteHandler{
		noteService: noteService,
		logger:      logger,
	}
}

// CreateNote stores a note
// @Summary Create a note
// @Tags notes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body ports.CreateNoteRequest true "Note"
// @Success 201 {object} Response{data=entities.Note}
// @Router /notes [post]
func (h *NoteHandler) CreateNote(c echo.Context) error {
	var req ports.CreateNoteRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	note, err := h.noteService.CreateNote(c.Request().Context(), CurrentUserID(c), req)
	if err != nil {
		return domainError(err)
	}

	return respond(c, http.StatusCreated, note)
}

// ListNotes lists the caller's notes, newest first
// @Summary List notes
// @Tags notes
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Page size"
// @Param offset query int false "Page offset"
// @Success 200 {object} Response{data=PaginatedResponse[entities.Note]}
// @Router /notes [get]
func (h *NoteHandler) ListNotes(c echo.Context) error {
	page, err := pageParams(c)
	if err != nil {
		return err
	}

	notes, err := h.noteService.ListNotes(c.Request().Context(), CurrentUserID(c), ports.NoteFilter{Page: page})
	if err != nil {
		return domainError(err)
	}

	return respondPage(c, notes, page)
}

// SearchNotes matches content against q or tags against a comma-separated list
// @Summary Search notes
// @Tags notes
// @Produce json
// @Security BearerAuth
// @Param q query string false "Text to find in the content"
// @Param tags query string false "Comma-separated tags"
// @Success 200 {object} Response{data=[]entities.Note}
// @Router /notes/search [get]
func (h *NoteHandler) SearchNotes(c echo.Context) error {
	query := c.QueryParam("q")
	tags := entities.SplitTags(c.QueryParam("tags"))
	if query == "" && len(tags) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "q or tags is required")
	}

	notes, err := h.noteService.SearchNotes(c.Request().Context(), CurrentUserID(c), query, tags)
	if err != nil {
		return domainError(err)
	}
	if notes == nil {
		notes = []*entities.Note{}
	}

	return respond(c, http.StatusOK, notes)
}

// GetNote returns one note
// @Summary Get a note
// @Tags notes
// @Produce json
// @Security BearerAuth
// @Param id path int true "Note ID"
// @Success 200 {object} Response{data=entities.Note}
// @Failure 404 {object} ErrorResponse
// @Router /notes/{id} [get]
func (h *NoteHandler) GetNote(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}

	note, err := h.noteService.GetNote(c.Request().Context(), CurrentUserID(c), id)
	if err != nil {
		return domainError(err)
	}

	return respond(c, http.StatusOK, note)
}

// UpdateNote replaces content and/or tags
// @Summary Update a note
// @Tags notes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Note ID"
// @Param request body ports.UpdateNoteRequest true "Fields to change"
// @Success 200 {object} Response{data=entities.Note}
// @Router /notes/{id} [put]
func (h *NoteHandler) UpdateNote(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}

	var req ports.UpdateNoteRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	note, err := h.noteService.UpdateNote(c.Request().Context(), CurrentUserID(c), id, req)
	if err != nil {
		return domainError(err)
	}

	return respond(c, http.StatusOK, note)
}

// DeleteNote deletes a note
// @Summary Delete a note
// @Tags notes
// @Produce json
// @Security BearerAuth
// @Param id path int true "Note ID"
// @Success 200 {object} Response
// @Router /notes/{id} [delete]
func (h *NoteHandler) DeleteNote(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}

	if err := h.noteService.DeleteNote(c.Request().Context(), CurrentUserID(c), id); err != nil {
		return domainError(err)
	}

	return respondMessage(c, "Note deleted")
}
