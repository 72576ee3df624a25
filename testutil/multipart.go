package testutil

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
)

// Part is one field of a multipart body. A non-empty FileName makes it a file part.
type Part struct {
	Name        string
	FileName    string
	ContentType string
	Data        []byte
}

// MultipartRequest builds a multipart/form-data request.
func MultipartRequest(tb testing.TB, method, target string, parts ...Part) *http.Request {
	tb.Helper()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for _, p := range parts {
		if p.FileName == "" && p.ContentType == "" {
			if err := w.WriteField(p.Name, string(p.Data)); err != nil {
				tb.Fatalf("write field %s: %v", p.Name, err)
			}
			continue
		}
		h := textproto.MIMEHeader{}
		disposition := `form-data; name="` + p.Name + `"`
		if p.FileName != "" {
			disposition += `; filename="` + p.FileName + `"`
		}
		h.Set("Content-Disposition", disposition)
		ct := p.ContentType
		if ct == "" {
			ct = "application/octet-stream"
		}
		h.Set("Content-Type", ct)
		pw, err := w.CreatePart(h)
		if err != nil {
			tb.Fatalf("create part %s: %v", p.Name, err)
		}
		if _, err := pw.Write(p.Data); err != nil {
			tb.Fatalf("write part %s: %v", p.Name, err)
		}
	}
	if err := w.Close(); err != nil {
		tb.Fatalf("close multipart: %v", err)
	}

	req := httptest.NewRequest(method, target, &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

// FileHeader parses a single file part back into a *multipart.FileHeader, the shape
// services receive from gin.
func FileHeader(tb testing.TB, field, fileName string, data []byte) *multipart.FileHeader {
	tb.Helper()

	req := MultipartRequest(tb, http.MethodPost, "/", Part{Name: field, FileName: fileName, Data: data})
	if err := req.ParseMultipartForm(32 << 20); err != nil {
		tb.Fatalf("parse multipart: %v", err)
	}
	headers := req.MultipartForm.File[field]
	if len(headers) == 0 {
		tb.Fatalf("no file part %q", field)
	}
	return headers[0]
}
