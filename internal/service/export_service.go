package service

import (
	"context"
	"fmt"
	"strconv"

	"github.com/noah-isme/school-records-api/internal/models"
	appErrors "github.com/noah-isme/school-records-api/pkg/errors"
	"github.com/noah-isme/school-records-api/pkg/export"
)

// ExportService renders a peer group's ranked grade sheet as CSV or PDF.
type ExportService struct {
	aggregates aggregateReader
	csv        *export.CSVExporter
	pdf        *export.PDFExporter
}

// NewExportService constructs ExportService.
func NewExportService(aggregates aggregateReader) *ExportService {
	return &ExportService{
		aggregates: aggregates,
		csv:        export.NewCSVExporter(),
		pdf:        export.NewPDFExporter(),
	}
}

var sheetHeaders = []string{"Student", "Total", "Grade", "Remark", "Position"}

// RankedSheet returns the rendered sheet bytes and their content type.
func (s *ExportService) RankedSheet(ctx context.Context, key models.PeerGroupKey, format string) ([]byte, string, error) {
	if key.SubjectID == "" || key.ClassID == "" || key.GradingCycleID == "" {
		return nil, "", appErrors.Clone(appErrors.ErrValidation, "classId, subjectId and gradingCycleId are required")
	}

	aggregates, err := s.aggregates.List(ctx, models.GradeFilter{
		ClassID:        key.ClassID,
		SubjectID:      key.SubjectID,
		GradingCycleID: key.GradingCycleID,
	})
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load ranked sheet")
	}

	dataset := export.Dataset{Headers: sheetHeaders, Rows: make([]map[string]string, 0, len(aggregates))}
	title := "grade sheet"
	for _, aggregate := range aggregates {
		name := aggregate.StudentName
		if name == "" {
			name = aggregate.StudentID
		}
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Student":  name,
			"Total":    strconv.FormatFloat(aggregate.Total, 'f', 2, 64),
			"Grade":    aggregate.Grade,
			"Remark":   aggregate.Remark,
			"Position": aggregate.Position,
		})
		if aggregate.SubjectName != "" && aggregate.ClassName != "" {
			title = fmt.Sprintf("%s - %s grade sheet", aggregate.ClassName, aggregate.SubjectName)
		}
	}

	switch format {
	case "", "csv":
		payload, err := s.csv.Render(dataset)
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		return payload, "text/csv", nil
	case "pdf":
		payload, err := s.pdf.Render(dataset, title)
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		return payload, "application/pdf", nil
	default:
		return nil, "", appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
}
