package echoapi

import (
	"io/ioutil"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/degreeaudit/core"
	"github.com/trezcool/degreeaudit/core/audit"
	"github.com/trezcool/degreeaudit/core/user"
)

const uploadField = "file"

type auditApi struct {
	conf    *core.Config
	svc     *audit.Service
	userSvc *user.Service
}

func registerAuditAPI(g *echo.Group, jwt echo.MiddlewareFunc, conf *core.Config, svc *audit.Service, userSvc *user.Service) {
	api := auditApi{
		conf:    conf,
		svc:     svc,
		userSvc: userSvc,
	}

	ag := g.Group("/audits", jwt)
	ag.POST("", api.upload)
}

type ReportResponse struct {
	*audit.Report
	EmailSent bool `json:"email_sent"`
}

func (api *auditApi) upload(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	doc, err := readDocument(ctx)
	if err != nil {
		return err
	}

	report, err := api.svc.Process(ctx.Request().Context(), doc)
	if err != nil {
		return errors.Wrap(err, "processing audit")
	}

	resp := ReportResponse{Report: report}
	if emailCopy, _ := strconv.ParseBool(ctx.FormValue("email_copy")); emailCopy {
		if to, ok := usr.Mailbox(); ok {
			api.svc.MailCopy(report, to)
			resp.EmailSent = true
		}
	}
	return ctx.JSON(http.StatusOK, resp)
}

func readDocument(ctx echo.Context) (audit.Document, error) {
	fh, err := ctx.FormFile(uploadField)
	if err != nil {
		if cause := errors.Cause(err); cause == http.ErrMissingFile || cause == http.ErrNotMultipart {
			return audit.Document{}, core.NewFieldError(uploadField, "this field is required")
		}
		return audit.Document{}, errors.Wrap(err, "reading multipart form")
	}

	f, err := fh.Open()
	if err != nil {
		return audit.Document{}, errors.Wrap(err, "opening uploaded file")
	}
	defer f.Close()

	content, err := ioutil.ReadAll(f)
	if err != nil {
		return audit.Document{}, errors.Wrap(err, "reading uploaded file")
	}
	return audit.Document{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get(echo.HeaderContentType),
		Content:     content,
	}, nil
}
