// internal/common/textextract/client.go
package textextract

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"fep-agent/internal/common/config"
	apperrors "fep-agent/internal/common/errors"
	apphttp "fep-agent/internal/common/http"
	"fep-agent/internal/models"
)

// Extractor turns an evidence file into plain text.
type Extractor interface {
	Extract(ctx context.Context, path string) (*models.TextExtraction, error)
}

// Client reads plain-text files directly and sends everything else to the
// OCR service.
type Client struct {
	http    *apphttp.Client
	baseURL string
}

func NewClient(cfg config.TextExtractionConfig) *Client {
	timeout := time.Duration(cfg.Timeout) * time.Millisecond
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &Client{
		http:    apphttp.NewClient(timeout, 0),
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
	}
}

func isPlainText(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt", ".md":
		return true
	}
	return false
}

func (c *Client) Extract(ctx context.Context, path string) (*models.TextExtraction, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.NewFileNotFoundError(filepath.Base(path))
		}
		return nil, apperrors.NewTextExtractionFailedError(path, err)
	}
	meta := models.ExtractionMetadata{
		Filename: filepath.Base(path),
		FileSize: info.Size(),
		FileType: strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), "."),
	}

	if isPlainText(path) {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, apperrors.NewTextExtractionFailedError(path, err)
		}
		meta.Confidence = 1
		return &models.TextExtraction{Success: true, Text: string(raw), Metadata: meta}, nil
	}

	if c.baseURL == "" {
		return nil, apperrors.NewTextExtractionFailedError(path, fmt.Errorf("ocr service not configured"))
	}
	out, err := c.remote(ctx, path)
	if err != nil {
		return nil, apperrors.NewTextExtractionFailedError(path, err)
	}
	if !out.Success {
		return nil, apperrors.NewTextExtractionFailedError(path, fmt.Errorf("%s", out.Error))
	}
	if out.Metadata.Filename == "" {
		out.Metadata = meta
	}
	return out, nil
}

func (c *Client) remote(ctx context.Context, path string) (*models.TextExtraction, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	part, err := form.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, err
	}
	if err := form.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/extract", &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", form.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &apphttp.StatusError{StatusCode: resp.StatusCode, Body: string(snippet)}
	}

	var out models.TextExtraction
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode extraction: %w", err)
	}
	return &out, nil
}
