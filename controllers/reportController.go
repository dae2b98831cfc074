package controllers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"parkwatch-be/models"
	"parkwatch-be/services"
)

func parseGeoCode(raw string) (*models.GeoCode, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	var g models.GeoCode
	if err := json.Unmarshal([]byte(raw), &g); err != nil {
		return nil, services.ValidationError("invalid geocodeData")
	}
	return &g, nil
}

// reportInput is the multipart body of a report submission
type reportInput struct {
	Description   string   `form:"description"`
	Location      string   `form:"location"`
	GeoCodeData   string   `form:"geocodeData"`
	PlateNumber   string   `form:"plateNumber"`
	Violations    []string `form:"violations"`
	ViolationList []string `form:"violations[]"`
	PostIt        bool     `form:"postIt"`
}

// reportEditInput is an owner edit. Fields left out of the form stay nil.
type reportEditInput struct {
	Description    *string  `form:"description"`
	Location       *string  `form:"location"`
	GeoCodeData    *string  `form:"geocodeData"`
	PlateNumber    *string  `form:"plateNumber"`
	Violations     []string `form:"violations"`
	ViolationList  []string `form:"violations[]"`
	PostIt         *bool    `form:"postIt"`
	ImagesToDelete string   `form:"imagesToDelete"`
}

// parseViolations accepts repeated violations fields or a single JSON array.
// ok is false when neither field was sent.
func parseViolations(fields, bracketed []string) ([]string, bool) {
	values := fields
	if values == nil {
		values = bracketed
	}
	if values == nil {
		return nil, false
	}
	if len(values) == 1 && strings.HasPrefix(strings.TrimSpace(values[0]), "[") {
		var list []string
		if err := json.Unmarshal([]byte(values[0]), &list); err == nil {
			return list, true
		}
	}
	return values, true
}

func (h *Handlers) createReport(c *gin.Context, kind models.ReportKind) {
	var input reportInput
	if err := c.ShouldBind(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	images, err := formFiles(c, "images", "images[]")
	if err != nil {
		h.respondError(c, err)
		return
	}
	geo, err := parseGeoCode(input.GeoCodeData)
	if err != nil {
		h.respondError(c, err)
		return
	}
	violations, _ := parseViolations(input.Violations, input.ViolationList)

	r, err := h.Reports.Create(c.Request.Context(), actor(c), services.CreateReportArgs{
		Kind:        kind,
		Description: input.Description,
		Location:    input.Location,
		GeoCode:     geo,
		PlateNumber: input.PlateNumber,
		Violations:  violations,
		PostIt:      input.PostIt,
		Images:      images,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Report submitted successfully", "report": r})
}

// CreatePlateReport handles POST /report/post/report
func (h *Handlers) CreatePlateReport(c *gin.Context) {
	h.createReport(c, models.KindPlate)
}

// CreateObstruction handles POST /report/post/obstruction
func (h *Handlers) CreateObstruction(c *gin.Context) {
	h.createReport(c, models.KindObstruction)
}

func listArgs(c *gin.Context) services.ListReportsArgs {
	page, _ := strconv.Atoi(c.Query("page"))
	limit, _ := strconv.Atoi(c.Query("limit"))
	return services.ListReportsArgs{
		Kind:   models.ReportKind(c.Query("kind")),
		Status: models.Status(c.Query("status")),
		Page:   page,
		Limit:  limit,
	}
}

func (h *Handlers) Feed(c *gin.Context) {
	page, err := h.Reports.ListFeed(c.Request.Context(), actor(c), listArgs(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *Handlers) MyReports(c *gin.Context) {
	page, err := h.Reports.ListOwn(c.Request.Context(), actor(c), listArgs(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *Handlers) PendingReports(c *gin.Context) {
	page, err := h.Reports.ListPending(c.Request.Context(), actor(c), listArgs(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// ReportDetail returns the report, its plate aggregate for moderators and
// the comment thread as the caller may see it
func (h *Handlers) ReportDetail(kind models.ReportKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramID(c, "id")
		if !ok {
			return
		}
		ctx := c.Request.Context()
		a := actor(c)
		detail, err := h.Reports.GetDetail(ctx, a, id, kind)
		if err != nil {
			h.respondError(c, err)
			return
		}
		comments, err := h.Comments.List(ctx, a, id)
		if err != nil {
			h.respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"report":    detail.Report,
			"aggregate": detail.Aggregate,
			"comments":  comments,
		})
	}
}

func (h *Handlers) UpdateReport(kind models.ReportKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramID(c, "id")
		if !ok {
			return
		}
		var input reportEditInput
		if err := c.ShouldBind(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		images, err := formFiles(c, "images", "images[]")
		if err != nil {
			h.respondError(c, err)
			return
		}
		args := services.UpdateReportArgs{
			Description: input.Description,
			Location:    input.Location,
			PlateNumber: input.PlateNumber,
			PostIt:      input.PostIt,
			NewImages:   images,
		}
		if input.GeoCodeData != nil {
			if args.GeoCode, err = parseGeoCode(*input.GeoCodeData); err != nil {
				h.respondError(c, err)
				return
			}
		}
		args.Violations, args.SetViolations = parseViolations(input.Violations, input.ViolationList)
		if raw := strings.TrimSpace(input.ImagesToDelete); raw != "" {
			if err := json.Unmarshal([]byte(raw), &args.ImagesToDelete); err != nil {
				badRequest(c, "Invalid imagesToDelete")
				return
			}
		}

		r, err := h.Reports.Update(c.Request.Context(), actor(c), id, kind, args)
		if err != nil {
			h.respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Report updated successfully", "report": r})
	}
}

func (h *Handlers) DeleteReport(kind models.ReportKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramID(c, "id")
		if !ok {
			return
		}
		if err := h.Reports.Delete(c.Request.Context(), actor(c), id, kind); err != nil {
			h.respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Report deleted successfully"})
	}
}

// Aggregate handles GET /report/admin/plate/:plate
func (h *Handlers) Aggregate(c *gin.Context) {
	view, err := h.Plates.Get(c.Request.Context(), actor(c), c.Param("plate"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}
