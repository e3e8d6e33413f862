package controller

import (
	"errors"
	"net/http"

	"github.com/harshaislive/bespoke/internal/model"
	"github.com/harshaislive/bespoke/internal/service"
	"github.com/harshaislive/bespoke/internal/util"

	"github.com/gin-gonic/gin"
)

type SessionController struct {
	Service *service.SessionService
}

func NewSessionController(svc *service.SessionService) *SessionController {
	return &SessionController{Service: svc}
}

// StartRequest carries the intake form. Email falls back to the signed-in
// identity when omitted.
// swagger:model StartRequest
type StartRequest struct {
	Name  string `json:"name" binding:"required"`
	Email string `json:"email" binding:"omitempty,email"`
	Team  string `json:"team"`
}

// Start godoc
// @Summary Start an assessment session
// @Description Generates scenario questions and opens a new session. Degrades to demo mode when generation is unavailable.
// @Tags assessment
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body StartRequest true "intake form"
// @Success 201 {object} util.Response{data=model.Session}
// @Failure 400 {object} util.Response
// @Failure 503 {object} util.Response
// @Router /api/assessment/start [post]
func (c *SessionController) Start(ctx *gin.Context) {
	var req StartRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	email := req.Email
	if email == "" {
		if claims := util.GetUserFromContext(ctx); claims != nil {
			email = claims.Email
		}
	}
	if email == "" {
		util.BadRequest(ctx, "email is required")
		return
	}

	profile := model.UserProfile{Name: req.Name, Email: email, Team: req.Team}
	session, err := c.Service.Start(ctx.Request.Context(), profile)
	if err != nil {
		// Failed start with a working generator: the caller may retry.
		util.Error(ctx, http.StatusServiceUnavailable, "Failed to create the assessment session: "+err.Error())
		return
	}

	util.Created(ctx, session)
}

// Get godoc
// @Summary Fetch a session
// @Description Returns live state, restoring from the snapshot cache when needed
// @Tags assessment
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "session id"
// @Success 200 {object} util.Response{data=model.Session}
// @Failure 404 {object} util.Response
// @Router /api/assessment/sessions/{id} [get]
func (c *SessionController) Get(ctx *gin.Context) {
	session, err := c.Service.Get(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		if errors.Is(err, util.ErrSessionNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, session)
}

type AnswerRequest struct {
	Question string `json:"question" binding:"required"`
	Answer   string `json:"answer"`
}

// EditAnswer godoc
// @Summary Record an answer
// @Tags assessment
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "session id"
// @Param body body AnswerRequest true "question text and answer"
// @Success 200 {object} util.Response{data=model.Session}
// @Failure 404 {object} util.Response
// @Failure 409 {object} util.Response
// @Router /api/assessment/sessions/{id}/answers [put]
func (c *SessionController) EditAnswer(ctx *gin.Context) {
	var req AnswerRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	session, err := c.Service.EditAnswer(ctx.Request.Context(), ctx.Param("id"), req.Question, req.Answer)
	if err != nil {
		c.writeLifecycleError(ctx, err)
		return
	}
	util.Success(ctx, session)
}

type NavigateRequest struct {
	Index *int `json:"index" binding:"required"`
}

// Navigate godoc
// @Summary Move to another question
// @Description The index is clamped into range; no validation happens on navigation
// @Tags assessment
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "session id"
// @Param body body NavigateRequest true "target question index"
// @Success 200 {object} util.Response{data=model.Session}
// @Router /api/assessment/sessions/{id}/navigate [put]
func (c *SessionController) Navigate(ctx *gin.Context) {
	var req NavigateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	session, err := c.Service.Navigate(ctx.Request.Context(), ctx.Param("id"), *req.Index)
	if err != nil {
		c.writeLifecycleError(ctx, err)
		return
	}
	util.Success(ctx, session)
}

// Complete godoc
// @Summary Complete a session
// @Description Finalizes the session once every question has a non-blank answer
// @Tags assessment
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "session id"
// @Success 200 {object} util.Response{data=model.Session}
// @Failure 404 {object} util.Response
// @Failure 409 {object} util.Response
// @Failure 422 {object} util.Response
// @Router /api/assessment/sessions/{id}/complete [post]
func (c *SessionController) Complete(ctx *gin.Context) {
	session, err := c.Service.Complete(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		var incomplete *service.IncompleteAnswersError
		if errors.As(err, &incomplete) {
			ctx.JSON(http.StatusUnprocessableEntity, util.Response{
				Code:    http.StatusUnprocessableEntity,
				Message: incomplete.Error(),
				Data: gin.H{
					"incompleteQuestions": incomplete.Questions,
					"jumpToIndex":         incomplete.FirstIndex,
				},
			})
			return
		}
		c.writeLifecycleError(ctx, err)
		return
	}
	util.Success(ctx, session)
}

// Restart godoc
// @Summary Restart
// @Description Drops the session and clears its snapshot so a fresh one can be started
// @Tags assessment
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "session id"
// @Success 200 {object} util.Response
// @Router /api/assessment/sessions/{id}/restart [post]
func (c *SessionController) Restart(ctx *gin.Context) {
	if err := c.Service.Restart(ctx.Request.Context(), ctx.Param("id")); err != nil {
		c.writeLifecycleError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"restarted": true})
}

func (c *SessionController) writeLifecycleError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, util.ErrSessionNotFound):
		util.NotFound(ctx)
	case errors.Is(err, util.ErrSessionNotInProgress), errors.Is(err, util.ErrCompletionInFlight):
		util.Error(ctx, http.StatusConflict, err.Error())
	default:
		util.LogInternalError(ctx, err)
	}
}
