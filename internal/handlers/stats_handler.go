package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"dompet/internal/reports"
	"dompet/internal/services"
)

// StatsHandler serves the dashboard and spending reports.
type StatsHandler struct {
	statsService services.StatsServicer
	userService  services.UserServicer
	loc          *time.Location
	now          func() time.Time
}

// NewStatsHandler creates a new StatsHandler.
func NewStatsHandler(statsService services.StatsServicer, userService services.UserServicer, loc *time.Location) *StatsHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &StatsHandler{statsService: statsService, userService: userService, loc: loc, now: time.Now}
}

// GetDashboard returns current-month totals
// @Summary     Dashboard
// @Description Spending for the current calendar month with category and daily breakdowns
// @Tags        stats
// @Produce     json
// @Security    BearerAuth
// @Param       family query bool false "Include family members' transactions"
// @Success     200 {object} services.DashboardView "Dashboard"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /stats/dashboard [get]
func (h *StatsHandler) GetDashboard(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	view, err := h.statsService.Dashboard(c.Request.Context(), userID, parseBoolQuery(c, "family"))
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

// GetReport returns aggregates over a filtered period
// @Summary     Spending report
// @Description Defaults to the current month when no dates are given. Member totals are included for family reports
// @Tags        stats
// @Produce     json
// @Security    BearerAuth
// @Param       start_date query string false "Inclusive start date"
// @Param       end_date query string false "Inclusive end date (whole day)"
// @Param       category_id query string false "Only items in this category"
// @Param       item_name query string false "Only items whose name contains this"
// @Param       member_id query string false "Only this family member"
// @Param       family query bool false "Include family members' transactions"
// @Success     200 {object} services.ReportView "Report"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /stats/report [get]
func (h *StatsHandler) GetReport(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	filter, err := parseTransactionFilter(c, h.loc)
	if err != nil {
		respondWithError(c, err)
		return
	}

	view, err := h.statsService.Report(c.Request.Context(), userID, filter)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

// DownloadReport renders the same report as a PDF attachment
// @Summary     Download spending report
// @Tags        stats
// @Produce     application/pdf
// @Security    BearerAuth
// @Param       start_date query string false "Inclusive start date"
// @Param       end_date query string false "Inclusive end date (whole day)"
// @Param       category_id query string false "Only items in this category"
// @Param       item_name query string false "Only items whose name contains this"
// @Param       member_id query string false "Only this family member"
// @Param       family query bool false "Include family members' transactions"
// @Success     200 {file} file "PDF report"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /stats/report.pdf [get]
func (h *StatsHandler) DownloadReport(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	filter, err := parseTransactionFilter(c, h.loc)
	if err != nil {
		respondWithError(c, err)
		return
	}

	ctx := c.Request.Context()
	view, err := h.statsService.Report(ctx, userID, filter)
	if err != nil {
		respondWithError(c, err)
		return
	}

	user, err := h.userService.GetUserByID(ctx, userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	now := h.now().In(h.loc)
	title := "Laporan Pengeluaran"
	if filter.IncludeFamily {
		title = "Laporan Pengeluaran Keluarga"
	}
	body, err := reports.RenderPDF(reports.Header{Title: title, Requester: user.Name, GeneratedAt: now}, view)
	if err != nil {
		respondWithError(c, err)
		return
	}

	filename := fmt.Sprintf("laporan-%s.pdf", now.Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, "application/pdf", body)
}
