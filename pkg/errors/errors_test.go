package errors

import (
	stderrors "errors"
	"fmt"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorMessage(t *testing.T) {
	err := Network(nil, 503, "search returned status %d", 503)
	assert.Equal(t, "network error (code 503): search returned status 503", err.Error())

	err = Parsing("object %s has no image", "42")
	assert.Equal(t, "parsing error: object 42 has no image", err.Error())
}

func TestWriteUnwrap(t *testing.T) {
	err := Write(fs.ErrPermission, "failed to save image")

	var typed *Error
	assert.True(t, stderrors.As(err, &typed))
	assert.Equal(t, ErrorTypeWrite, typed.Type)
	assert.True(t, stderrors.Is(err, fs.ErrPermission))
}

func TestFromStatusCode(t *testing.T) {
	tests := []struct {
		code int
		want ErrorType
	}{
		{0, ErrorTypeNetwork},
		{400, ErrorTypeNetwork},
		{404, ErrorTypeNotFound},
		{429, ErrorTypeRateLimit},
		{500, ErrorTypeServerError},
		{503, ErrorTypeServerError},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, FromStatusCode(tt.code), "status %d", tt.code)
	}
}

func TestIsTransient(t *testing.T) {
	assert.True(t, IsTransient(ErrorTypeNetwork))
	assert.True(t, IsTransient(ErrorTypeServerError))
	assert.False(t, IsTransient(ErrorTypeParsing))
	assert.False(t, IsTransient(ErrorTypeWrite))
	assert.False(t, IsTransient(ErrorTypeNotFound))
}

func TestNetworkUnwrap(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := Network(cause, 0, "GET /api/entity/OBJECT/1: %v", cause)

	assert.True(t, stderrors.Is(err, cause))
	assert.Equal(t, ErrorTypeNetwork, TypeOf(err))
}

func TestTypeOf(t *testing.T) {
	wrapped := fmt.Errorf("object 7: %w", Parsing("no image"))
	assert.Equal(t, ErrorTypeParsing, TypeOf(wrapped))
	assert.Equal(t, ErrorTypeUnknown, TypeOf(stderrors.New("plain")))
	assert.Equal(t, ErrorTypeUnknown, TypeOf(nil))
}
