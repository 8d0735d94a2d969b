package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/hostel-console-api/internal/models"
	appErrors "github.com/noah-isme/hostel-console-api/pkg/errors"
	"github.com/noah-isme/hostel-console-api/pkg/export"
)

// Renderer turns a dataset into a downloadable file.
type Renderer interface {
	ContentType() string
	Extension() string
	Render(data export.Dataset) ([]byte, error)
}

type feeLister interface {
	List(ctx context.Context, session *models.Session) (*FeeView, error)
}

// ExportFile is a rendered export ready to stream.
type ExportFile struct {
	Filename    string
	ContentType string
	Payload     []byte
}

var feeExportHeaders = []string{"Student", "Room", "Hostel", "Monthly Fee", "Total Fee", "Amount Paid", "Due Amount", "Status", "Last Payment", "New"}

// ExportService renders the merged fee view into CSV, PDF or XLSX.
type ExportService struct {
	fees      feeLister
	renderers map[string]Renderer
	logger    *zap.Logger
	now       func() time.Time
}

// NewExportService constructs an ExportService keyed by renderer extension.
func NewExportService(fees feeLister, logger *zap.Logger, renderers ...Renderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	byFormat := make(map[string]Renderer, len(renderers))
	for _, r := range renderers {
		byFormat[r.Extension()] = r
	}
	return &ExportService{fees: fees, renderers: byFormat, logger: logger, now: time.Now}
}

// ExportFees renders the current fee view in the requested format.
func (s *ExportService) ExportFees(ctx context.Context, session *models.Session, format string) (*ExportFile, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = "csv"
	}
	renderer, ok := s.renderers[format]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}

	view, err := s.fees.List(ctx, session)
	if err != nil {
		return nil, err
	}

	payload, err := renderer.Render(feeDataset(view.Rows))
	if err != nil {
		s.logger.Error("fee export render failed", zap.String("format", format), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}

	filename := fmt.Sprintf("fees-%s.%s", s.now().UTC().Format("20060102-150405"), renderer.Extension())
	s.logger.Info("fee export generated", zap.String("format", format), zap.Int("rows", len(view.Rows)))
	return &ExportFile{Filename: filename, ContentType: renderer.ContentType(), Payload: payload}, nil
}

func feeDataset(rows []models.FeeRow) export.Dataset {
	data := export.Dataset{Title: "Hostel Fees", Headers: feeExportHeaders}
	for _, r := range rows {
		isNew := "no"
		if r.IsNew {
			isNew = "yes"
		}
		data.Rows = append(data.Rows, map[string]string{
			"Student":      r.StudentName,
			"Room":         r.RoomNumber,
			"Hostel":       r.HostelName,
			"Monthly Fee":  r.MonthlyFee.String(),
			"Total Fee":    r.TotalFee.String(),
			"Amount Paid":  r.AmountPaid.String(),
			"Due Amount":   r.DueAmount.String(),
			"Status":       string(r.Status),
			"Last Payment": r.LastPaymentDate,
			"New":          isNew,
		})
	}
	return data
}
