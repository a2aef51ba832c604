package storage

import (
	"errors"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"

	"docarchive/internal/config"
)

func TestNewMinIO_Validation(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.MinIOConfig
		msg  string
	}{
		{"missing endpoint", config.MinIOConfig{AccessKey: "a", SecretKey: "s", Bucket: "b"}, "endpoint is required"},
		{"missing credentials", config.MinIOConfig{Endpoint: "localhost:9000", Bucket: "b"}, "credentials are required"},
		{"missing bucket", config.MinIOConfig{Endpoint: "localhost:9000", AccessKey: "a", SecretKey: "s"}, "bucket is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewMinIO(tt.cfg)
			assert.Nil(t, s)
			assert.ErrorContains(t, err, tt.msg)
		})
	}
}

func TestMapMinIOError(t *testing.T) {
	missing := minio.ErrorResponse{Code: "NoSuchKey", Message: "The specified key does not exist."}
	assert.ErrorIs(t, mapMinIOError(missing), ErrObjectNotFound)

	denied := minio.ErrorResponse{Code: "AccessDenied"}
	err := mapMinIOError(denied)
	assert.False(t, errors.Is(err, ErrObjectNotFound))
}

func TestContentDisposition(t *testing.T) {
	assert.Equal(t, "", contentDisposition(""))
	assert.Equal(t, `attachment; filename=report.pdf`, contentDisposition("report.pdf"))
	assert.Equal(t, `attachment; filename="Q3 Plan.docx"`, contentDisposition("Q3 Plan.docx"))
}
