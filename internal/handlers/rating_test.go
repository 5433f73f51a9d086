package handlers

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func photoRequest(t *testing.T, field string, payload []byte) *http.Request {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile(field, "photo.jpg")
	require.NoError(t, err)
	_, err = part.Write(payload)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest("POST", "/api/v1/ratings", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestReadFormPhoto(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		payload []byte
		wantErr error
	}{
		{
			name:    "small photo accepted",
			payload: bytes.Repeat([]byte{0xAB}, 1024),
		},
		{
			name:    "photo at the limit accepted",
			payload: bytes.Repeat([]byte{0xAB}, maxPhotoSize),
		},
		{
			name:    "oversize photo rejected, not truncated",
			payload: bytes.Repeat([]byte{0xAB}, maxPhotoSize+1),
			wantErr: errPhotoTooLarge,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := photoRequest(t, "photo", tt.payload)

			data, err := readFormPhoto(req, "photo")
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.payload, data)
		})
	}
}

func TestReadFormPhotoMissingPart(t *testing.T) {
	t.Parallel()

	req := photoRequest(t, "photo", []byte{0xAB})
	_, err := readFormPhoto(req, "photo2")
	require.Error(t, err)
	require.NotErrorIs(t, err, errPhotoTooLarge)
}
