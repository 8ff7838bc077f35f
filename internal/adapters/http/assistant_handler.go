package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/taskmaster/assistant/internal/infrastructure/logger"
	"github.com/taskmaster/assistant/internal/ports"
)

// AssistantHandler serves the conversational endpoint and the tool-backed
// utilities that are also reachable directly.
type AssistantHandler struct {
	chat       ports.ChatService
	dispatcher ports.ToolDispatcher
	search     ports.SearchService
	calculator ports.CalculatorService
	logger     *logger.Logger
}

// NewAssistantHandler creates a new assistant handler
func NewAssistantHandler(chat ports.ChatService, dispatcher ports.ToolDispatcher, search ports.SearchService, calculator ports.CalculatorService, logger *logger.Logger) *AssistantHandler {
	return &AssistantHandler{
		chat:       chat,
		dispatcher: dispatcher,
		search:     search,
		calculator: calculator,
		logger:     logger,
	}
}

// Chat answers one user message, running at most one tool
// @Summary Chat with the assistant
// @Tags assistant
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body ports.ChatRequest true "Message"
// @Success 200 {object} Response{data=ports.ChatResponse}
// @Router /chat [post]
func (h *AssistantHandler) Chat(c echo.Context) error {
	var req ports.ChatRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	userID := CurrentUserID(c)
	resp, err := h.chat.Chat(c.Request().Context(), userID, req)
	if err != nil {
		return domainError(err)
	}

	h.logger.LogUserAction(userID.String(), "chat", map[string]interface{}{
		"tool_used": resp.ToolUsed,
	})
	return respond(c, http.StatusOK, resp)
}

// Tools lists the tool catalogue offered to the language model
// @Summary Tool catalogue
// @Tags assistant
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Response{data=[]ports.ToolSpec}
// @Router /chat/tools [get]
func (h *AssistantHandler) Tools(c echo.Context) error {
	return respond(c, http.StatusOK, h.dispatcher.Catalogue())
}

// Search runs a web search and summarizes the top results
// @Summary Web search
// @Tags search
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body ports.SearchRequest true "Query"
// @Success 200 {object} Response{data=ports.SearchResponse}
// @Router /search [post]
func (h *AssistantHandler) Search(c echo.Context) error {
	var req ports.SearchRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	resp, err := h.search.Search(c.Request().Context(), req.Query, req.MaxResults)
	if err != nil {
		return domainError(err)
	}

	return respond(c, http.StatusOK, resp)
}

// Calculate evaluates an arithmetic expression
// @Summary Calculate
// @Tags calculator
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body ports.CalculateRequest true "Expression"
// @Success 200 {object} Response
// @Failure 400 {object} ErrorResponse
// @Router /calculator/calculate [post]
func (h *AssistantHandler) Calculate(c echo.Context) error {
	var req ports.CalculateRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	result, err := h.calculator.Calculate(c.Request().Context(), req.Expression)
	if err != nil {
		return domainError(err)
	}

	return respond(c, http.StatusOK, map[string]interface{}{
		"expression": req.Expression,
		"result":     result,
	})
}

// Convert converts an amount between currencies at the live rate
// @Summary Convert currency
// @Tags calculator
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body ports.ConvertRequest true "Amount and currencies"
// @Success 200 {object} Response{data=ports.Conversion}
// @Router /calculator/convert [post]
func (h *AssistantHandler) Convert(c echo.Context) error {
	var req ports.ConvertRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	conv, err := h.calculator.ConvertCurrency(c.Request().Context(), req.Amount, req.FromCurrency, req.ToCurrency)
	if err != nil {
		return domainError(err)
	}

	return respond(c, http.StatusOK, conv)
}
