package controller

import (
	"errors"
	"strconv"

	"github.com/harshaislive/bespoke/internal/service"
	"github.com/harshaislive/bespoke/internal/util"

	"github.com/gin-gonic/gin"
)

type ReviewController struct {
	Service *service.ReviewService
}

func NewReviewController(svc *service.ReviewService) *ReviewController {
	return &ReviewController{Service: svc}
}

// ListSessions godoc
// @Summary List completed and running sessions
// @Tags review
// @Produce json
// @Security ApiKeyAuth
// @Param page query int false "page number"
// @Param limit query int false "page size"
// @Param status query string false "filter by status"
// @Param name query string false "filter by employee name"
// @Success 200 {object} util.Response{data=util.PageResponse}
// @Router /api/review/sessions [get]
func (c *ReviewController) ListSessions(ctx *gin.Context) {
	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "20"))

	sessions, total, err := c.Service.ListSessions(page, limit, ctx.Query("status"), ctx.Query("name"))
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, util.PageResponse{
		List:  sessions,
		Total: total,
		Page:  page,
		Limit: limit,
	})
}

// GetSession godoc
// @Summary Fetch a stored session transcript
// @Tags review
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "session id"
// @Success 200 {object} util.Response{data=model.AssessmentSession}
// @Failure 404 {object} util.Response
// @Router /api/review/sessions/{id} [get]
func (c *ReviewController) GetSession(ctx *gin.Context) {
	session, err := c.Service.GetSession(ctx.Param("id"))
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

type FeedbackRequest struct {
	Feedback string `json:"feedback" binding:"required"`
}

// AddFeedback godoc
// @Summary Leave manager feedback on a session
// @Tags review
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "session id"
// @Param body body FeedbackRequest true "feedback text"
// @Success 201 {object} util.Response{data=model.Feedback}
// @Failure 404 {object} util.Response
// @Router /api/review/sessions/{id}/feedback [post]
func (c *ReviewController) AddFeedback(ctx *gin.Context) {
	var req FeedbackRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	feedback, err := c.Service.AddFeedback(ctx.Param("id"), claims.UserID, req.Feedback)
	if err != nil {
		if errors.Is(err, util.ErrSessionNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Created(ctx, feedback)
}

// ListFeedback godoc
// @Summary List feedback left on a session
// @Tags review
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "session id"
// @Success 200 {object} util.Response{data=[]model.Feedback}
// @Router /api/review/sessions/{id}/feedback [get]
func (c *ReviewController) ListFeedback(ctx *gin.Context) {
	items, err := c.Service.ListFeedback(ctx.Param("id"))
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, items)
}
