package gateway_test

import (
	"context"
	"io"
	"net/http"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skillscope/dashboard/internal/gateway"
	"skillscope/dashboard/internal/model"
)

const validUsers = `[{"id":1,"name":"Ada","skills":["go"],"primary_focus":"backend","experience_years":3}]`

func TestUploadUsers_SendsMultipart(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/upload-users", r.URL.Path)
		f, hdr, err := r.FormFile("file")
		require.NoError(t, err)
		defer f.Close()
		data, _ := io.ReadAll(f)
		assert.Equal(t, "users.json", hdr.Filename)
		assert.JSONEq(t, validUsers, string(data))
		writeJSON(w, http.StatusOK, `{"status":"success","message":"Uploaded 1 users"}`)
	})

	res, err := c.UploadUsers(context.Background(), gateway.File{Name: "users.json", Data: []byte(validUsers)})
	require.NoError(t, err)
	assert.Equal(t, "Uploaded 1 users", res.Message)
}

func TestUpload_InvalidFileNeverSent(t *testing.T) {
	var hits atomic.Int32
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		writeJSON(w, http.StatusOK, `{}`)
	})

	_, err := c.UploadJobs(context.Background(), gateway.File{Name: "jobs.csv", Data: []byte("id,title")})
	assert.Equal(t, gateway.KindInvalidUpload, gateway.KindOf(err))

	_, err = c.UploadUsers(context.Background(), gateway.File{Name: "users.json", Data: []byte(`{"not":"a list"}`)})
	assert.Equal(t, gateway.KindInvalidUpload, gateway.KindOf(err))

	assert.Zero(t, hits.Load())
}

func TestUpload_RejectedByService(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, `{"error":"Invalid JSON format"}`)
	})

	_, err := c.Upload(context.Background(), model.UploadUsers, gateway.File{Name: "u.json", Data: []byte(validUsers)})
	var se *gateway.ServiceError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, gateway.KindServiceRejected, se.Kind)
	assert.Equal(t, gateway.OpUploadUsers, se.Op)
	assert.Equal(t, "Invalid JSON format", se.Message)
}

func TestUpload_UnknownKind(t *testing.T) {
	c := gateway.New("http://127.0.0.1:1/api", 0)
	_, err := c.Upload(context.Background(), model.UploadKind("skills"), gateway.File{Name: "a.json"})
	assert.Error(t, err)
}
