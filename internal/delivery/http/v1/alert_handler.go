package v1

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"go-jobalert-scheduler/internal/delivery/http/response"
	"go-jobalert-scheduler/internal/domain"
	"go-jobalert-scheduler/pkg/apperror"

	"github.com/gin-gonic/gin"
)

type AlertHandler struct {
	alertUC  domain.AlertUsecase
	exportUC domain.ExportUsecase
}

func NewAlertHandler(protected *gin.RouterGroup, alertUC domain.AlertUsecase, exportUC domain.ExportUsecase, limit gin.HandlerFunc) {
	handler := &AlertHandler{alertUC: alertUC, exportUC: exportUC}

	protected.POST("/alerts/run", limit, handler.Run)
	protected.GET("/notifications/export", handler.Export)
}

type RunAlertsRequest struct {
	Type        string                `json:"type" binding:"required"`
	WindowStart *time.Time            `json:"window_start"`
	WindowEnd   *time.Time            `json:"window_end"`
	DryRun      bool                  `json:"dry_run"`
	Recipients  []domain.RecipientRef `json:"recipients"`
}

// Run executes one pass synchronously and returns its summary.
func (h *AlertHandler) Run(c *gin.Context) {
	var req RunAlertsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperror.BadRequest(err.Error()))
		return
	}

	typ, err := domain.ParseNotificationType(req.Type)
	if err != nil {
		c.Error(apperror.BadRequest(err.Error()))
		return
	}
	if (req.WindowStart == nil) != (req.WindowEnd == nil) {
		c.Error(apperror.BadRequest("window_start and window_end must be given together"))
		return
	}

	run := domain.RunRequest{Type: typ, DryRun: req.DryRun, Recipients: req.Recipients}
	if req.WindowStart != nil {
		run.Window = domain.Window{From: *req.WindowStart, To: *req.WindowEnd}
	}

	summary, err := h.alertUC.Run(c.Request.Context(), run)
	if err != nil {
		if summary != nil && errors.Is(err, c.Request.Context().Err()) {
			response.Success(c, http.StatusAccepted, "Pass cancelled", summary)
			return
		}
		c.Error(err)
		return
	}

	response.Success(c, http.StatusOK, "Pass completed", summary)
}

// Export downloads the notification ledger for a date range.
func (h *AlertHandler) Export(c *gin.Context) {
	from, err := parseDay(c.Query("from"))
	if err != nil {
		c.Error(apperror.BadRequest("from: " + err.Error()))
		return
	}
	to, err := parseDay(c.Query("to"))
	if err != nil {
		c.Error(apperror.BadRequest("to: " + err.Error()))
		return
	}
	// a bare date covers the whole day
	if !strings.Contains(c.Query("to"), "T") {
		to = to.Add(24*time.Hour - time.Nanosecond)
	}

	data, filename, err := h.exportUC.ExportNotifications(c.Request.Context(), domain.ExportRequest{
		From:   from,
		To:     to,
		Format: c.Query("format"),
	})
	if err != nil {
		c.Error(err)
		return
	}

	contentType := "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	if strings.HasSuffix(filename, ".csv") {
		contentType = "text/csv"
	}
	response.File(c, filename, contentType, data)
}

// parseDay accepts YYYY-MM-DD or RFC3339.
func parseDay(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, errors.New("is required")
	}
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, errors.New("expected YYYY-MM-DD or RFC3339")
	}
	return t, nil
}
