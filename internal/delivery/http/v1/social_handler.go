package v1

import (
	"net/http"
	"strconv"

	"go-jobalert-scheduler/internal/delivery/http/response"
	"go-jobalert-scheduler/internal/domain"
	"go-jobalert-scheduler/pkg/apperror"

	"github.com/gin-gonic/gin"
)

type SocialHandler struct {
	socialUC domain.SocialUsecase
}

func NewSocialHandler(protected *gin.RouterGroup, socialUC domain.SocialUsecase, limit gin.HandlerFunc) {
	handler := &SocialHandler{socialUC: socialUC}

	jobs := protected.Group("/jobs")
	{
		jobs.POST("/:id/publish", limit, handler.Publish)
		jobs.POST("/:id/remove", limit, handler.Remove)
		jobs.GET("/:id/social-posts", handler.List)
	}
}

type PublishRequest struct {
	Platforms []string `json:"platforms"`
}

func jobIDParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.Error(apperror.BadRequest("Invalid job ID"))
		return 0, false
	}
	return id, true
}

func (h *SocialHandler) Publish(c *gin.Context) {
	id, ok := jobIDParam(c)
	if !ok {
		return
	}

	var req PublishRequest
	// an empty body means every configured target
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.Error(apperror.BadRequest(err.Error()))
			return
		}
	}

	records, err := h.socialUC.OnPublish(c.Request.Context(), id, req.Platforms)
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "Job published to social targets", records)
}

func (h *SocialHandler) Remove(c *gin.Context) {
	id, ok := jobIDParam(c)
	if !ok {
		return
	}
	if err := h.socialUC.OnRemove(c.Request.Context(), id); err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "Social posts removed", nil)
}

func (h *SocialHandler) List(c *gin.Context) {
	id, ok := jobIDParam(c)
	if !ok {
		return
	}
	records, err := h.socialUC.ListPosts(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}
	if records == nil {
		records = []domain.SocialPostRecord{}
	}
	response.Success(c, http.StatusOK, "Social posts retrieved", records)
}
