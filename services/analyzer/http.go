// Package analyzersvc implements audit.Analyzer on top of the document-analysis services.
package analyzersvc

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"io/ioutil"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/tidwall/gjson"

	"github.com/trezcool/degreeaudit/core/audit"
)

const (
	defaultTimeout  = 90 * time.Second
	uploadFieldName = "file"
	maxResponseSize = 10 << 20
	fallbackDetail  = "Upload failed"
)

// HTTPClient is satisfied by *http.Client.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// ResponseError is a non-2xx answer of the analysis service.
type ResponseError struct {
	StatusCode int
	Detail     string
}

func (e *ResponseError) Error() string {
	return fmt.Sprintf("analysis service responded %d: %s", e.StatusCode, e.Detail)
}

// UserDetail is the message shown to the uploader.
func (e *ResponseError) UserDetail() string { return e.Detail }

// HTTPAnalyzer posts documents as multipart forms to a remote analysis endpoint.
type HTTPAnalyzer struct {
	url    string
	client HTTPClient
}

var _ audit.Analyzer = (*HTTPAnalyzer)(nil)

type HTTPOption func(*HTTPAnalyzer)

// WithHTTPClient replaces the default client (which only carries a timeout).
func WithHTTPClient(client HTTPClient) HTTPOption {
	return func(a *HTTPAnalyzer) {
		a.client = client
	}
}

func NewHTTPAnalyzer(url string, timeout time.Duration, opts ...HTTPOption) *HTTPAnalyzer {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	a := &HTTPAnalyzer{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *HTTPAnalyzer) Analyze(ctx context.Context, doc audit.Document) ([]byte, error) {
	body, contentType, err := multipartBody(doc)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.url, body)
	if err != nil {
		return nil, errors.Wrap(err, "creating analysis request")
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "posting document")
	}
	defer resp.Body.Close()

	raw, err := ioutil.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, errors.Wrap(err, "reading analysis response")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &ResponseError{StatusCode: resp.StatusCode, Detail: errorDetail(raw)}
	}
	return raw, nil
}

func multipartBody(doc audit.Document) (*bytes.Buffer, string, error) {
	body := new(bytes.Buffer)
	w := multipart.NewWriter(body)

	ct := doc.ContentType
	if ct == "" {
		ct = "application/pdf"
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, uploadFieldName, doc.Filename))
	h.Set("Content-Type", ct)

	part, err := w.CreatePart(h)
	if err != nil {
		return nil, "", errors.Wrap(err, "creating multipart file part")
	}
	if _, err := part.Write(doc.Content); err != nil {
		return nil, "", errors.Wrap(err, "writing multipart file part")
	}
	if err := w.Close(); err != nil {
		return nil, "", errors.Wrap(err, "closing multipart body")
	}
	return body, w.FormDataContentType(), nil
}

// errorDetail reads the `detail` of an error body, FastAPI-style: a string, or a list of
// {"msg": ...} objects. Anything else gives the fallback message.
func errorDetail(raw []byte) string {
	if !gjson.ValidBytes(raw) {
		return fallbackDetail
	}
	detail := gjson.GetBytes(raw, "detail")
	switch {
	case detail.Type == gjson.String && strings.TrimSpace(detail.Str) != "":
		return strings.TrimSpace(detail.Str)
	case detail.IsArray():
		var msgs []string
		for _, m := range detail.Get("#.msg").Array() {
			if s := strings.TrimSpace(m.String()); s != "" {
				msgs = append(msgs, s)
			}
		}
		if len(msgs) > 0 {
			return strings.Join(msgs, "; ")
		}
	}
	return fallbackDetail
}
