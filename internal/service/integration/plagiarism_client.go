package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/RubachokBoss/plagiarism-checker/web-client/internal/models"
)

var (
	ErrServiceUnavailable = errors.New("plagiarism service unavailable")
	ErrInvalidResponse    = errors.New("invalid response from plagiarism service")
)

// maxErrorBody ограничивает, сколько тела ошибки мы тащим в лог.
const maxErrorBody = 4096

// APIError возвращается, если сервис анализа ответил не 2xx.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("plagiarism service returned status %d: %s", e.StatusCode, e.Body)
}

type PlagiarismClient interface {
	CheckDocuments(ctx context.Context, doc1, doc2 *models.UploadedFile) (*models.CheckResult, error)
	CheckContent(ctx context.Context, text string, file *models.UploadedFile, url string) (*models.CheckResult, error)
}

type plagiarismClient struct {
	baseURL       string
	checkEndpoint string
	client        *http.Client
	logger        zerolog.Logger
}

func NewPlagiarismClient(baseURL, checkEndpoint string, timeout time.Duration, logger zerolog.Logger) PlagiarismClient {
	return &plagiarismClient{
		baseURL:       strings.TrimRight(baseURL, "/"),
		checkEndpoint: checkEndpoint,
		client: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

func (c *plagiarismClient) CheckDocuments(ctx context.Context, doc1, doc2 *models.UploadedFile) (*models.CheckResult, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	if err := writeFilePart(writer, "document1", doc1); err != nil {
		return nil, err
	}
	if err := writeFilePart(writer, "document2", doc2); err != nil {
		return nil, err
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close multipart writer: %w", err)
	}

	return c.post(ctx, &buf, writer.FormDataContentType(), models.ModeDocuments)
}

func (c *plagiarismClient) CheckContent(ctx context.Context, text string, file *models.UploadedFile, url string) (*models.CheckResult, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	if text = strings.TrimSpace(text); text != "" {
		if err := writer.WriteField("text", text); err != nil {
			return nil, fmt.Errorf("failed to write text field: %w", err)
		}
	}

	if file != nil {
		if err := writeFilePart(writer, "file", file); err != nil {
			return nil, err
		}
	}

	if url = strings.TrimSpace(url); url != "" {
		if err := writer.WriteField("url", url); err != nil {
			return nil, fmt.Errorf("failed to write url field: %w", err)
		}
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close multipart writer: %w", err)
	}

	return c.post(ctx, &buf, writer.FormDataContentType(), models.ModeContent)
}

// post выполняет один запрос без повторов.
func (c *plagiarismClient) post(ctx context.Context, body io.Reader, contentType string, mode models.SubmissionMode) (*models.CheckResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+c.checkEndpoint, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(b)),
		}
	}

	var result models.CheckResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("%w: failed to decode response: %v", ErrInvalidResponse, err)
	}

	if err := result.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}

	c.logger.Info().
		Str("mode", mode.String()).
		Float64("plagiarism_percentage", result.PlagiarismPercentage).
		Int("sources", len(result.Sources)).
		Dur("duration", time.Since(start)).
		Msg("Plagiarism check completed")

	return &result, nil
}

func writeFilePart(writer *multipart.Writer, field string, file *models.UploadedFile) error {
	if file == nil {
		return fmt.Errorf("%s is required", field)
	}

	part, err := writer.CreateFormFile(field, file.Name)
	if err != nil {
		return fmt.Errorf("failed to create form file: %w", err)
	}

	if _, err := io.Copy(part, bytes.NewReader(file.Content)); err != nil {
		return fmt.Errorf("failed to copy file content: %w", err)
	}

	return nil
}
