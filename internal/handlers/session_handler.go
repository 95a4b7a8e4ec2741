package handlers

import (
	"errors"
	"net/http"

	"github.com/SAP-F-2025/marksheet-service/internal/marksheet"
	"github.com/SAP-F-2025/marksheet-service/internal/services"
	"github.com/SAP-F-2025/marksheet-service/internal/utils"
	"github.com/gin-gonic/gin"
)

// SessionHandler exposes the marksheet creation form. Every event returns
// the session snapshot the display layer renders.
type SessionHandler struct {
	BaseHandler
	sessionService services.SessionService
}

func NewSessionHandler(sessionService services.SessionService, logger utils.Logger) *SessionHandler {
	return &SessionHandler{
		BaseHandler:    NewBaseHandler(logger),
		sessionService: sessionService,
	}
}

// CreateSession opens a new form with a single blank subject row
// @Summary Create form session
// @Tags sessions
// @Produce json
// @Success 201 {object} services.SessionResponse
// @Router /sessions [post]
func (h *SessionHandler) CreateSession(c *gin.Context) {
	session, err := h.sessionService.Create(c.Request.Context())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.LogRequest(c, "Form session opened", "session_id", session.ID)
	c.JSON(http.StatusCreated, session)
}

func (h *SessionHandler) GetSession(c *gin.Context) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}
	resp, err := h.sessionService.Get(c.Request.Context(), id)
	h.respond(c, resp, err)
}

func (h *SessionHandler) DeleteSession(c *gin.Context) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}
	if err := h.sessionService.Delete(c.Request.Context(), id); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// UpdateMeta replaces the student information
// @Summary Update student information
// @Tags sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param meta body marksheet.StudentMeta true "Student information"
// @Success 200 {object} services.SessionResponse
// @Router /sessions/{id}/meta [put]
func (h *SessionHandler) UpdateMeta(c *gin.Context) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}
	var meta marksheet.StudentMeta
	if err := c.ShouldBindJSON(&meta); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request payload", err, err.Error())
		return
	}
	resp, err := h.sessionService.SetMeta(c.Request.Context(), id, meta)
	h.respond(c, resp, err)
}

func (h *SessionHandler) AddSubject(c *gin.Context) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}
	resp, err := h.sessionService.AddSubject(c.Request.Context(), id)
	h.respond(c, resp, err)
}

func (h *SessionHandler) RemoveSubject(c *gin.Context) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}
	index, ok := parseIndexParam(c, "index")
	if !ok {
		return
	}
	resp, err := h.sessionService.RemoveSubject(c.Request.Context(), id, index)
	h.respond(c, resp, err)
}

// EditSubject applies one keystroke-level change to a subject input and
// validates that input
// @Summary Edit subject input
// @Tags sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param index path int true "Subject index"
// @Param edit body services.EditSubjectRequest true "Field and value"
// @Success 200 {object} services.SessionResponse
// @Router /sessions/{id}/subjects/{index} [put]
func (h *SessionHandler) EditSubject(c *gin.Context) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}
	index, ok := parseIndexParam(c, "index")
	if !ok {
		return
	}
	var req services.EditSubjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request payload", err, err.Error())
		return
	}
	resp, err := h.sessionService.EditSubject(c.Request.Context(), id, index, &req)
	h.respond(c, resp, err)
}

func (h *SessionHandler) BlurSubject(c *gin.Context) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}
	index, ok := parseIndexParam(c, "index")
	if !ok {
		return
	}
	var req services.BlurSubjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request payload", err, err.Error())
		return
	}
	resp, err := h.sessionService.BlurSubject(c.Request.Context(), id, index, &req)
	h.respond(c, resp, err)
}

// ImportSubjects fills the form from externally parsed records, replacing
// the subject list
// @Summary Import into form
// @Tags sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param import body services.ImportSessionRequest true "Student and subjects"
// @Success 200 {object} services.SessionResponse
// @Router /sessions/{id}/import [post]
func (h *SessionHandler) ImportSubjects(c *gin.Context) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}
	var req services.ImportSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request payload", err, err.Error())
		return
	}
	resp, err := h.sessionService.Import(c.Request.Context(), id, &req)
	h.respond(c, resp, err)
}

func (h *SessionHandler) ResetSession(c *gin.Context) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}
	resp, err := h.sessionService.Reset(c.Request.Context(), id)
	h.respond(c, resp, err)
}

// SubmitSession validates the whole form and generates the marksheet. A
// blocked submission answers 422 with the verdict and the flagged snapshot.
// @Summary Submit form
// @Tags sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 201 {object} services.SubmitResponse
// @Failure 409 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Router /sessions/{id}/submit [post]
func (h *SessionHandler) SubmitSession(c *gin.Context) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	resp, err := h.sessionService.Submit(c.Request.Context(), id)
	if err != nil {
		var formError *marksheet.FormError
		if errors.As(err, &formError) && resp != nil {
			h.LogWarn(c, "Form submission blocked", "session_id", id, "errors", formError.Verdict.Errors)
			c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
				Message: formError.Verdict.Message(),
				Details: resp,
				Code:    "form_invalid",
			})
			return
		}
		h.handleServiceError(c, err)
		return
	}

	h.LogRequest(c, "Marksheet generated from form", "session_id", id, "marksheet_id", resp.Receipt.ID)
	c.JSON(http.StatusCreated, resp)
}

func (h *SessionHandler) respond(c *gin.Context, resp *services.SessionResponse, err error) {
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
