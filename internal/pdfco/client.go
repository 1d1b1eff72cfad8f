// Package pdfco extracts plain text from PDF files with the PDF.co API.
package pdfco

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"interviewcoach/internal/config"
	"interviewcoach/internal/errors"

	"github.com/hashicorp/go-retryablehttp"
)

// maxTextBytes bounds the extracted text fetched from a result URL.
const maxTextBytes = 10 << 20

// Client runs the presign, upload, convert and fetch sequence
type Client struct {
	baseURL string
	apiKey  string
	http    *retryablehttp.Client
	logger  *errors.Logger
}

// NewClient creates a PDF.co client
func NewClient(cfg config.PDFCoConfig, logger *errors.Logger) *Client {
	rc := retryablehttp.NewClient()
	rc.RetryMax = cfg.MaxRetries
	rc.HTTPClient.Timeout = cfg.Timeout
	rc.Logger = logger
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		http:    rc,
		logger:  logger,
	}
}

// apiResponse covers the fields PDF.co returns across endpoints
type apiResponse struct {
	Error        bool   `json:"error"`
	Message      string `json:"message"`
	PresignedURL string `json:"presignedUrl"`
	URL          string `json:"url"`
	Body         string `json:"body"`
}

// ExtractText uploads a PDF and returns its text
func (c *Client) ExtractText(ctx context.Context, fileName string, data []byte) (string, error) {
	if c.apiKey == "" {
		return "", errors.NewConfigError(errors.ErrCodeMissingAPIKey, "pdfco.apiKey is not configured", nil)
	}
	if len(data) == 0 {
		return "", errors.NewValidationError(errors.ErrCodeInvalidRequest, "uploaded file is empty", nil)
	}

	uploadURL, fileURL, err := c.presign(ctx, fileName)
	if err != nil {
		return "", err
	}
	if err := c.upload(ctx, uploadURL, data); err != nil {
		return "", err
	}
	result, err := c.convert(ctx, fileURL)
	if err != nil {
		return "", err
	}

	if !strings.HasPrefix(result, "http") {
		return result, nil
	}
	return c.fetchText(ctx, result)
}

func (c *Client) presign(ctx context.Context, fileName string) (string, string, error) {
	q := url.Values{}
	q.Set("contenttype", "application/octet-stream")
	q.Set("name", fileName)
	endpoint := c.baseURL + "/v1/file/upload/get-presigned-url?" + q.Encode()

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", "", extractionError("failed to build presign request", err)
	}
	req.Header.Set("x-api-key", c.apiKey)

	resp, err := c.callAPI(req)
	if err != nil {
		return "", "", err
	}
	if resp.PresignedURL == "" || resp.URL == "" {
		return "", "", extractionError("presign response is missing URLs", nil)
	}
	return resp.PresignedURL, resp.URL, nil
}

func (c *Client) upload(ctx context.Context, uploadURL string, data []byte) error {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPut, uploadURL, data)
	if err != nil {
		return extractionError("failed to build upload request", err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := c.http.Do(req)
	if err != nil {
		return extractionError("upload to PDF.co failed", err)
	}
	defer c.closeBody(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return extractionError(fmt.Sprintf("upload to PDF.co failed with status %d", resp.StatusCode), nil)
	}
	return nil
}

func (c *Client) convert(ctx context.Context, fileURL string) (string, error) {
	payload, err := json.Marshal(map[string]string{"name": "result.txt", "url": fileURL})
	if err != nil {
		return "", extractionError("failed to encode convert request", err)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/pdf/convert/to/text", bytes.NewReader(payload))
	if err != nil {
		return "", extractionError("failed to build convert request", err)
	}
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.callAPI(req)
	if err != nil {
		return "", err
	}
	if resp.URL != "" {
		return resp.URL, nil
	}
	return resp.Body, nil
}

func (c *Client) fetchText(ctx context.Context, resultURL string) (string, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, resultURL, nil)
	if err != nil {
		return "", extractionError("failed to build result request", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return "", extractionError("failed to download extracted text", err)
	}
	defer c.closeBody(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", extractionError(fmt.Sprintf("result download failed with status %d", resp.StatusCode), nil)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxTextBytes))
	if err != nil {
		return "", extractionError("failed to read extracted text", err)
	}
	return string(body), nil
}

// callAPI performs a PDF.co API call and decodes its JSON envelope
func (c *Client) callAPI(req *retryablehttp.Request) (*apiResponse, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, extractionError("PDF.co request failed", err)
	}
	defer c.closeBody(resp.Body)

	var out apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, extractionError(fmt.Sprintf("invalid PDF.co response (status %d)", resp.StatusCode), err)
	}
	if out.Error || resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := out.Message
		if msg == "" {
			msg = fmt.Sprintf("PDF.co returned status %d", resp.StatusCode)
		}
		return nil, extractionError(msg, nil).WithContext("status", resp.StatusCode)
	}
	return &out, nil
}

func (c *Client) closeBody(body io.Closer) {
	if err := body.Close(); err != nil {
		c.logger.Debug("Failed to close response body", "error", err.Error())
	}
}

func extractionError(message string, cause error) *errors.AppError {
	return errors.NewNetworkError(errors.ErrCodePDFExtractionFailed, message, cause)
}
