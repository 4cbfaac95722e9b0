package pipeline

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/markdave123-py/Docura/internal/core"
)

const maxDocumentBytes = 64 << 20 // refuse anything past 64MB

// fetchDocument pulls the raw bytes, either from our S3 bucket (virtual-
// hosted URL) or over plain HTTP for externally linked documents.
func fetchDocument(ctx context.Context, obj core.ObjectClient, rawURL string) ([]byte, error) {
	if bucket, key, ok := parseS3URL(rawURL); ok {
		data, err := obj.GetFile(ctx, bucket, key)
		if err != nil {
			return nil, fmt.Errorf("fetch s3 object: %w", err)
		}
		return data, nil
	}

	fctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	req, err := http.NewRequestWithContext(fctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch: bad url: %w", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch: got status %d for %s", resp.StatusCode, rawURL)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentBytes))
	if err != nil {
		return nil, fmt.Errorf("fetch: read body: %w", err)
	}
	return data, nil
}

// parseS3URL extracts bucket and key from a virtual-hosted–style S3 URL.
// Example: https://my-bucket.s3.us-east-2.amazonaws.com/path/to/file.pdf
func parseS3URL(u string) (bucket, key string, ok bool) {
	trimmed := strings.TrimPrefix(u, "https://")
	hostPath := strings.SplitN(trimmed, "/", 2)
	host := hostPath[0]
	if !strings.Contains(host, ".s3.") || !strings.HasSuffix(host, ".amazonaws.com") {
		return "", "", false
	}
	if len(hostPath) == 2 {
		key = hostPath[1]
	}
	bucket = strings.Split(host, ".")[0]
	return bucket, key, bucket != "" && key != ""
}
