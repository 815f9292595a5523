package echoapi_test

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"reflect"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"

	echoapi "github.com/trezcool/degreeaudit/apps/api/echo"
	"github.com/trezcool/degreeaudit/core"
	"github.com/trezcool/degreeaudit/core/audit"
	"github.com/trezcool/degreeaudit/core/user"
	analyzersvc "github.com/trezcool/degreeaudit/services/analyzer"
	emailsvc "github.com/trezcool/degreeaudit/services/email"
	logsvc "github.com/trezcool/degreeaudit/services/logger"
	inmemdb "github.com/trezcool/degreeaudit/storage/database/inmem"
	testutil "github.com/trezcool/degreeaudit/tests"
)

var errMissingToken = httpErr{Error: "missing or malformed jwt"}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
}

type testApp struct {
	conf     *core.Config
	server   *echoapi.Server
	usrRepo  user.Repository
	usrSvc   *user.Service
	mailer   *emailsvc.ConsoleServiceMock
	analyzed int32 // calls received by the analysis service
}

func newTestConfig() *core.Config {
	return &core.Config{
		Env:             "TEST",
		TestMode:        true,
		AppName:         "Degree Audit",
		SecretKey:       "secret",
		FrontendBaseURL: "http://localhost:3000",
		Server: core.ServerConfig{
			JWTExpirationDelta:        10 * time.Minute,
			JWTRefreshExpirationDelta: 4 * time.Hour,
			MaxUploadSize:             "1M",
			AllowOrigins:              []string{"*"},
			DisableReqLogs:            true,
		},
		Audit: core.AuditConfig{DeriveTotals: true},
	}
}

// setup starts a fake analysis service answering with analyze and a server using it.
func setup(t *testing.T, analyze http.HandlerFunc) *testApp {
	t.Helper()
	app := &testApp{conf: newTestConfig()}

	remote := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&app.analyzed, 1)
		analyze(w, r)
	}))
	t.Cleanup(remote.Close)

	logger := logsvc.NewLoggerMock()
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)

	app.usrRepo = inmemdb.NewUserRepository()
	app.usrSvc = user.NewService(app.usrRepo)
	app.mailer = emailsvc.NewConsoleServiceMock(app.conf, logger)
	analyzer := analyzersvc.NewHTTPAnalyzer(remote.URL, 5*time.Second)
	auditSvc := audit.NewService(analyzer, audit.DefaultMapping(), app.mailer, logger, app.conf)

	app.server = echoapi.NewServer(echoapi.ServerDeps{
		Conf:       app.conf,
		Logger:     logger,
		Validate:   validate,
		Translator: translator,
		UserSvc:    app.usrSvc,
		AuditSvc:   auditSvc,
	})
	return app
}

func (app *testApp) createUser(t *testing.T, name, uname, email, pwd string, isActive bool) user.User {
	return testutil.CreateUser(t, app.usrRepo, name, uname, email, pwd, isActive)
}

func (app *testApp) token(t *testing.T, usr user.User) string {
	t.Helper()
	token, err := echoapi.GenerateToken(echoapi.GetUserClaims(usr, app.conf), app.conf)
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

func (app *testApp) analyzeCalls() int {
	return int(atomic.LoadInt32(&app.analyzed))
}

func (app *testApp) serve(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	app.server.ServeHTTP(rec, req)
	return rec
}

func newAuthRequest(method, path, token string, data ...[]byte) *http.Request {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

// newUploadRequest builds a multipart upload; an empty filename leaves the file part out.
func newUploadRequest(t *testing.T, token, filename string, content []byte, fields map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	if filename != "" {
		part, err := w.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/v1/audits", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

func jsonBytesEqual(b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	return reflect.DeepEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}
