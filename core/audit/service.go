// Package audit turns an uploaded degree-audit document into a Report: the document is sent
// to an Analyzer, its response normalized through a Mapping and the courses sorted by plan.Build.
package audit

import (
	"context"
	"net/mail"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/degreeaudit/core"
	"github.com/trezcool/degreeaudit/core/plan"
)

const planCopyTemplate = "plan_copy"

var (
	ErrInvalidDocument = errors.New("please upload a valid PDF file")
	ErrInvalidResponse = errors.New("invalid analysis response")
)

type (
	// Document is an uploaded degree audit.
	Document struct {
		Filename    string
		ContentType string
		Content     []byte
	}

	// Analyzer extracts the audit data of a document. It returns the raw JSON response.
	Analyzer interface {
		Analyze(ctx context.Context, doc Document) ([]byte, error)
	}

	// AnalysisError is returned when the analyzer failed; Detail can be shown to the user.
	AnalysisError struct {
		Detail string
		Err    error
	}

	// Report is what the dashboard renders for one upload. It is never stored.
	Report struct {
		ID          uuid.UUID         `json:"id"`
		FileName    string            `json:"file_name"`
		Summary     string            `json:"summary"`
		Student     Student           `json:"student"`
		Credits     plan.CreditTotals `json:"credits"`
		Shares      plan.Shares       `json:"shares"`
		Plan        []plan.Bucket     `json:"plan"`
		Courses     []plan.Course     `json:"courses"`
		GeneratedAt time.Time         `json:"generated_at"`
	}

	Service struct {
		analyzer Analyzer
		mapping  Mapping
		mailer   core.EmailService
		log      core.Logger
		conf     *core.Config
	}
)

func (e *AnalysisError) Error() string {
	if e.Err == nil {
		return e.Detail
	}
	return e.Detail + ": " + e.Err.Error()
}

func (e *AnalysisError) Unwrap() error { return e.Err }

// Validate rejects empty documents and anything not named *.pdf.
func (d Document) Validate() error {
	if len(d.Content) == 0 || !strings.EqualFold(filepath.Ext(d.Filename), ".pdf") {
		return ErrInvalidDocument
	}
	return nil
}

// BuildReport builds the plan of a normalized response.
// When deriveTotals is set and the response has no aggregate credits, they are summed from the courses.
func BuildReport(fileName string, ext *Extract, deriveTotals bool) *Report {
	totals := ext.Credits
	if !ext.HasCredits && deriveTotals {
		totals = plan.TotalsFromCourses(ext.Courses)
	}
	p := plan.Build(ext.Courses, totals)

	table := make([]plan.Course, 0, len(ext.Courses))
	for _, c := range ext.Courses {
		if strings.TrimSpace(c.Code) != "" {
			table = append(table, c)
		}
	}

	return &Report{
		ID:          uuid.New(),
		FileName:    fileName,
		Summary:     ext.Summary,
		Student:     ext.Student,
		Credits:     p.Credits,
		Shares:      p.Shares,
		Plan:        p.Buckets(),
		Courses:     table,
		GeneratedAt: time.Now().UTC(),
	}
}

func NewService(analyzer Analyzer, mapping Mapping, mailer core.EmailService, logger core.Logger, conf *core.Config) *Service {
	return &Service{
		analyzer: analyzer,
		mapping:  mapping,
		mailer:   mailer,
		log:      logger,
		conf:     conf,
	}
}

// Process analyzes doc and builds its report.
func (svc *Service) Process(ctx context.Context, doc Document) (*Report, error) {
	if err := doc.Validate(); err != nil {
		return nil, err
	}

	raw, err := svc.analyzer.Analyze(ctx, doc)
	if err != nil {
		return nil, &AnalysisError{Detail: analysisDetail(err), Err: err}
	}

	ext, err := svc.mapping.Normalize(raw)
	if err != nil {
		svc.log.Warn("unreadable analysis response", map[string]interface{}{"file": doc.Filename, "size": len(raw)})
		return nil, err
	}
	return BuildReport(doc.Filename, ext, svc.conf.Audit.DeriveTotals), nil
}

// MailCopy emails the report to the given address. Sending happens in the background.
func (svc *Service) MailCopy(report *Report, to mail.Address) {
	svc.mailer.SendMessages(&core.EmailMessage{
		To:           []mail.Address{to},
		Subject:      "Your academic plan",
		TemplateName: planCopyTemplate,
		TemplateData: report,
	})
}

// analysisDetail picks the message of errors that carry a user-facing one (see services/analyzer).
func analysisDetail(err error) string {
	var detailed interface{ UserDetail() string }
	if errors.As(err, &detailed) {
		if d := detailed.UserDetail(); d != "" {
			return d
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "Analysis timed out"
	}
	return "Upload failed"
}
