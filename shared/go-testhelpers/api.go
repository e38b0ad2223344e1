package testhelpers

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"

	"github.com/stretchr/testify/require"
)

// FormFile is one file part of a multipart claim request.
type FormFile struct {
	Field       string
	Filename    string
	ContentType string
	Data        []byte
}

// BuildClaimRequest builds a multipart POST addressed to tenant's host.
func (h *TestHelper) BuildClaimRequest(tenant string, fields map[string]string, files ...FormFile) *http.Request {
	body, contentType := MultipartBody(h.T, fields, files...)
	req, err := http.NewRequest(http.MethodPost, h.BaseURL+"/api/v1/claims", body)
	require.NoError(h.T, err)
	req.Header.Set("Content-Type", contentType)
	req.Host = h.TenantHost(tenant)
	return req
}

// MultipartBody encodes fields and files as multipart/form-data.
func MultipartBody(t require.TestingT, fields map[string]string, files ...FormFile) (*bytes.Buffer, string) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for _, f := range files {
		hdr := make(textproto.MIMEHeader)
		hdr.Set("Content-Disposition", `form-data; name="`+f.Field+`"; filename="`+f.Filename+`"`)
		if f.ContentType != "" {
			hdr.Set("Content-Type", f.ContentType)
		}
		part, err := mw.CreatePart(hdr)
		require.NoError(t, err)
		_, err = part.Write(f.Data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

// DoRequest performs an HTTP request and asserts that no network-level error occurred.
func (h *TestHelper) DoRequest(req *http.Request) *http.Response {
	resp, err := http.DefaultClient.Do(req)
	require.NoError(h.T, err, "HTTP request failed")
	return resp
}

// DecodeJSON reads resp's body into out and closes it.
func (h *TestHelper) DecodeJSON(resp *http.Response, out any) {
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(h.T, err)
	require.NoError(h.T, json.Unmarshal(raw, out), "body: %s", string(raw))
}
