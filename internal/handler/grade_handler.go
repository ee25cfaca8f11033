package handler

import (
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/school-records-api/internal/models"
	"github.com/noah-isme/school-records-api/internal/service"
	appErrors "github.com/noah-isme/school-records-api/pkg/errors"
	"github.com/noah-isme/school-records-api/pkg/response"
)

// GradeHandler exposes the grade submission and grade book endpoints.
type GradeHandler struct {
	grades  *service.GradeService
	exports *service.ExportService
}

// NewGradeHandler constructs handler.
func NewGradeHandler(grades *service.GradeService, exports *service.ExportService) *GradeHandler {
	return &GradeHandler{grades: grades, exports: exports}
}

// Submit godoc
// @Summary Submit a batch of component scores
// @Description Accepts the object body or the legacy bare student array with scope in query parameters.
// @Tags Grades
// @Accept json
// @Produce json
// @Param payload body service.SubmitGradesRequest true "Batch payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /grades [post]
func (h *GradeHandler) Submit(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	req, err := service.ParseSubmitGradesRequest(body, c.Request.URL.Query())
	if err != nil {
		response.Error(c, err)
		return
	}

	result, err := h.grades.SubmitBatch(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	meta := map[string]interface{}{"positionsRecomputed": result.PositionsRecomputed}
	if result.RecomputeError != "" {
		meta["recomputeError"] = result.RecomputeError
	}
	response.JSON(c, http.StatusOK, result, meta)
}

// Query godoc
// @Summary Read the grade book for a filter scope
// @Tags Grades
// @Produce json
// @Param classId query string false "Filter by class"
// @Param subjectId query string false "Filter by subject"
// @Param gradingCycleId query string false "Filter by grading cycle; adds the cycle policy's assessment definitions"
// @Param studentId query string false "Filter by student"
// @Success 200 {object} response.Envelope
// @Router /grades [get]
func (h *GradeHandler) Query(c *gin.Context) {
	filter := models.GradeFilter{
		ClassID:        c.Query("classId"),
		SubjectID:      c.Query("subjectId"),
		GradingCycleID: c.Query("gradingCycleId"),
		StudentID:      c.Query("studentId"),
	}
	book, err := h.grades.Query(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, book)
}

// Export godoc
// @Summary Export the ranked grade sheet for a peer group
// @Tags Grades
// @Produce text/csv
// @Produce application/pdf
// @Param classId query string true "Class"
// @Param subjectId query string true "Subject"
// @Param gradingCycleId query string true "Grading cycle"
// @Param format query string false "csv (default) or pdf"
// @Success 200 {file} file
// @Router /grades/export [get]
func (h *GradeHandler) Export(c *gin.Context) {
	key := models.PeerGroupKey{
		SubjectID:      c.Query("subjectId"),
		ClassID:        c.Query("classId"),
		GradingCycleID: c.Query("gradingCycleId"),
	}
	format := c.DefaultQuery("format", "csv")
	payload, contentType, err := h.exports.RankedSheet(c.Request.Context(), key, format)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=grade-sheet.%s", format))
	c.Data(http.StatusOK, contentType, payload)
}
