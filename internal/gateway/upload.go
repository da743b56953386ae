package gateway

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"

	"skillscope/dashboard/internal/model"
	"skillscope/dashboard/internal/uploads"
)

// File is a named payload chosen for upload.
type File struct {
	Name string
	Data []byte
}

// UploadUsers replaces the service's user data with f.
func (c *Client) UploadUsers(ctx context.Context, f File) (UploadResult, error) {
	return c.upload(ctx, OpUploadUsers, "/upload-users", model.UploadUsers, f)
}

// UploadJobs replaces the service's job data with f.
func (c *Client) UploadJobs(ctx context.Context, f File) (UploadResult, error) {
	return c.upload(ctx, OpUploadJobs, "/upload-jobs", model.UploadJobs, f)
}

// Upload dispatches on kind.
func (c *Client) Upload(ctx context.Context, kind model.UploadKind, f File) (UploadResult, error) {
	switch kind {
	case model.UploadUsers:
		return c.UploadUsers(ctx, f)
	case model.UploadJobs:
		return c.UploadJobs(ctx, f)
	default:
		return UploadResult{}, fmt.Errorf("unknown upload kind %q", kind)
	}
}

func (c *Client) upload(ctx context.Context, op, path string, kind model.UploadKind, f File) (UploadResult, error) {
	if err := uploads.Validate(kind, f.Name, f.Data); err != nil {
		return UploadResult{}, &ServiceError{Op: op, Kind: KindInvalidUpload, Err: err}
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", f.Name)
	if err != nil {
		return UploadResult{}, fmt.Errorf("%s: create form file: %w", op, err)
	}
	if _, err := part.Write(f.Data); err != nil {
		return UploadResult{}, fmt.Errorf("%s: write form file: %w", op, err)
	}
	if err := mw.Close(); err != nil {
		return UploadResult{}, fmt.Errorf("%s: close multipart writer: %w", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, &buf)
	if err != nil {
		return UploadResult{}, &ServiceError{Op: op, Kind: KindNetworkUnreachable, Err: err}
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	body, err := c.do(ctx, op, req)
	if err != nil {
		return UploadResult{}, err
	}
	var res UploadResult
	if err := c.decode(op, body, &res); err != nil {
		return UploadResult{}, err
	}
	return res, nil
}
