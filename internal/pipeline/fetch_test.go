package pipeline

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseS3URL(t *testing.T) {
	tests := []struct {
		name       string
		url        string
		wantBucket string
		wantKey    string
		wantOK     bool
	}{
		{
			name:       "virtual hosted url",
			url:        "https://my-bucket.s3.us-east-2.amazonaws.com/docs/file.pdf",
			wantBucket: "my-bucket",
			wantKey:    "docs/file.pdf",
			wantOK:     true,
		},
		{
			name:   "missing key",
			url:    "https://my-bucket.s3.us-east-2.amazonaws.com",
			wantOK: false,
		},
		{
			name:   "plain https url",
			url:    "https://example.com/file.pdf",
			wantOK: false,
		},
		{
			name:   "lookalike host",
			url:    "https://my-bucket.s3.evil.example.com/file.pdf",
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bucket, key, ok := parseS3URL(tt.url)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.wantBucket, bucket)
				assert.Equal(t, tt.wantKey, key)
			}
		})
	}
}

func TestFetchDocumentHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("%PDF-1.7 body"))
	}))
	defer srv.Close()

	got, err := fetchDocument(context.Background(), nil, srv.URL+"/file.pdf")
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-1.7 body"), got)
}

func TestFetchDocumentHTTPErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := fetchDocument(context.Background(), nil, srv.URL+"/missing.pdf")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestFetchDocumentS3(t *testing.T) {
	obj := &fakeObjectClient{files: map[string][]byte{
		"uploads/docs/report.pdf": []byte("s3 bytes"),
	}}

	got, err := fetchDocument(context.Background(), obj,
		"https://uploads.s3.us-east-2.amazonaws.com/docs/report.pdf")
	require.NoError(t, err)
	assert.Equal(t, []byte("s3 bytes"), got)
}

func TestFetchDocumentS3Error(t *testing.T) {
	obj := &fakeObjectClient{err: errors.New("access denied")}

	_, err := fetchDocument(context.Background(), obj,
		"https://uploads.s3.us-east-2.amazonaws.com/docs/report.pdf")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "access denied")
}
