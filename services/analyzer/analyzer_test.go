package analyzersvc

import (
	"context"
	"encoding/base64"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/trezcool/degreeaudit/core/audit"
)

var testDoc = audit.Document{Filename: "what-if.pdf", ContentType: "application/pdf", Content: []byte("%PDF-1.4 fake")}

func TestHTTPAnalyzer_Analyze(t *testing.T) {
	t.Run("posts the file as multipart", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/upload/pdf", r.URL.Path)

			file, header, err := r.FormFile("file")
			require.NoError(t, err)
			defer file.Close()
			content, _ := ioutil.ReadAll(file)
			assert.Equal(t, "what-if.pdf", header.Filename)
			assert.Equal(t, testDoc.Content, content)

			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"file_name": "what-if.pdf", "summary_text": "ok"}`))
		}))
		defer srv.Close()

		raw, err := NewHTTPAnalyzer(srv.URL+"/upload/pdf", time.Second).Analyze(context.Background(), testDoc)
		require.NoError(t, err)
		assert.Equal(t, "ok", gjson.GetBytes(raw, "summary_text").String())
	})

	tests := []struct {
		name       string
		status     int
		body       string
		wantDetail string
	}{
		{name: "string detail", status: http.StatusBadRequest, body: `{"detail": "Please upload a valid PDF file."}`, wantDetail: "Please upload a valid PDF file."},
		{name: "validation detail", status: http.StatusUnprocessableEntity, body: `{"detail": [{"msg": "field required"}, {"msg": "bad file"}]}`, wantDetail: "field required; bad file"},
		{name: "no detail", status: http.StatusInternalServerError, body: `{"error": "boom"}`, wantDetail: "Upload failed"},
		{name: "not json", status: http.StatusBadGateway, body: `<html>bad gateway</html>`, wantDetail: "Upload failed"},
		{name: "empty detail", status: http.StatusInternalServerError, body: `{"detail": " "}`, wantDetail: "Upload failed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewHTTPAnalyzer(srv.URL, time.Second).Analyze(context.Background(), testDoc)
			var respErr *ResponseError
			require.True(t, errors.As(err, &respErr), "%v", err)
			assert.Equal(t, tt.status, respErr.StatusCode)
			assert.Equal(t, tt.wantDetail, respErr.UserDetail())
		})
	}

	t.Run("context is honoured", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			<-r.Context().Done()
		}))
		defer srv.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()
		_, err := NewHTTPAnalyzer(srv.URL, time.Minute).Analyze(ctx, testDoc)
		require.Error(t, err)
		assert.True(t, errors.Is(err, context.DeadlineExceeded), "%v", err)
	})
}

type clientFunc func(req *http.Request) (*http.Response, error)

func (f clientFunc) Do(req *http.Request) (*http.Response, error) { return f(req) }

func TestWithHTTPClient(t *testing.T) {
	called := false
	a := NewHTTPAnalyzer("http://analysis.invalid/upload/pdf", 0, WithHTTPClient(clientFunc(func(req *http.Request) (*http.Response, error) {
		called = true
		return nil, errors.New("offline")
	})))

	_, err := a.Analyze(context.Background(), testDoc)
	assert.Error(t, err)
	assert.True(t, called)
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		want    string
		wantErr bool
	}{
		{name: "bare", text: `{"summary": "x"}`, want: `{"summary": "x"}`},
		{name: "fenced", text: "```json\n{\"summary\": \"x\"}\n```", want: `{"summary": "x"}`},
		{name: "with prose", text: "Here you go:\n{\"a\": {\"b\": 1}}\nHope it helps.", want: `{"a": {"b": 1}}`},
		{name: "array", text: `[1, 2]`, wantErr: true},
		{name: "garbage", text: `no json here`, wantErr: true},
		{name: "broken", text: `{"a": `, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := extractJSON(tt.text)
			if tt.wantErr {
				assert.Equal(t, audit.ErrInvalidResponse, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(got))
		})
	}
}

func TestAnthropicAnalyzer_Analyze(t *testing.T) {
	t.Run("sends the pdf as a document block", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/v1/messages", r.URL.Path)
			assert.Equal(t, "test-key", r.Header.Get("X-Api-Key"))

			body, _ := ioutil.ReadAll(r.Body)
			doc := gjson.GetBytes(body, `messages.0.content.#(type=="document")`)
			assert.Equal(t, "application/pdf", doc.Get("source.media_type").String())
			assert.Equal(t, base64.StdEncoding.EncodeToString(testDoc.Content), doc.Get("source.data").String())
			assert.Equal(t, "test-model", gjson.GetBytes(body, "model").String())

			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{
				"id": "msg_01", "type": "message", "role": "assistant", "model": "test-model",
				"content": [{"type": "text", "text": "` + "```json\\n{\\\"summary\\\": \\\"ok\\\"}\\n```" + `"}],
				"stop_reason": "end_turn",
				"usage": {"input_tokens": 10, "output_tokens": 5}
			}`))
		}))
		defer srv.Close()

		a := NewAnthropicAnalyzer("test-key", "test-model", time.Second, option.WithBaseURL(srv.URL), option.WithMaxRetries(0))
		raw, err := a.Analyze(context.Background(), testDoc)
		require.NoError(t, err)
		assert.Equal(t, `{"summary": "ok"}`, string(raw))
	})

	t.Run("api errors become response errors", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"type": "error", "error": {"type": "invalid_request_error", "message": "bad pdf"}}`))
		}))
		defer srv.Close()

		a := NewAnthropicAnalyzer("test-key", "", time.Second, option.WithBaseURL(srv.URL), option.WithMaxRetries(0))
		_, err := a.Analyze(context.Background(), testDoc)
		var respErr *ResponseError
		require.True(t, errors.As(err, &respErr), "%v", err)
		assert.Equal(t, http.StatusBadRequest, respErr.StatusCode)
	})
}
