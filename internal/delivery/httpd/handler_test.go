package httpd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RubachokBoss/plagiarism-checker/web-client/internal/models"
	"github.com/RubachokBoss/plagiarism-checker/web-client/internal/repository"
	"github.com/RubachokBoss/plagiarism-checker/web-client/internal/service"
	"github.com/RubachokBoss/plagiarism-checker/web-client/internal/service/integration"
	"github.com/RubachokBoss/plagiarism-checker/web-client/internal/worker"
)

type stubClient struct {
	mu     sync.Mutex
	gate   chan struct{}
	result *models.CheckResult
	err    error
	fields []string
}

func (c *stubClient) CheckDocuments(ctx context.Context, doc1, doc2 *models.UploadedFile) (*models.CheckResult, error) {
	c.mu.Lock()
	c.fields = []string{doc1.Name, doc2.Name}
	c.mu.Unlock()
	if c.gate != nil {
		<-c.gate
	}
	return c.result, c.err
}

func (c *stubClient) CheckContent(ctx context.Context, text string, file *models.UploadedFile, url string) (*models.CheckResult, error) {
	c.mu.Lock()
	c.fields = []string{text, url}
	c.mu.Unlock()
	if c.gate != nil {
		<-c.gate
	}
	return c.result, c.err
}

const testMaxFileSize = 1024

func newTestServer(t *testing.T, client integration.PlagiarismClient) (*httptest.Server, *http.Client) {
	t.Helper()

	pool := worker.NewWorkerPool(2, zerolog.Nop())
	pool.Start()
	t.Cleanup(pool.Stop)

	validator := service.NewValidator(service.ValidationConfig{
		MaxFileSize:   testMaxFileSize,
		AllowedTypes:  []string{".txt"},
		MaxTextLength: 500,
	})

	checker := service.NewCheckerService(
		repository.NewSessionRepository(time.Hour, zerolog.Nop()),
		client,
		validator,
		pool,
		zerolog.Nop(),
		service.CheckerConfig{CheckTimeout: 5 * time.Second},
	)

	h := NewHandler(checker, pool, zerolog.Nop(), HandlerConfig{
		CookieName:      "checker_session",
		SessionTTL:      time.Hour,
		MaxUploadSize:   4 * testMaxFileSize,
		MaxFileSize:     testMaxFileSize,
		AllowedTypes:    []string{".txt"},
		RefreshInterval: 1,
	})

	router := chi.NewRouter()
	h.RegisterRoutes(router)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	return srv, &http.Client{Jar: jar, Timeout: 5 * time.Second}
}

type formFile struct {
	field, name, content string
}

func multipartBody(t *testing.T, values map[string]string, files ...formFile) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range values {
		require.NoError(t, w.WriteField(k, v))
	}
	for _, f := range files {
		part, err := w.CreateFormFile(f.field, f.name)
		require.NoError(t, err)
		_, err = part.Write([]byte(f.content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func getDoc(t *testing.T, client *http.Client, url string) *goquery.Document {
	t.Helper()

	resp, err := client.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	require.NoError(t, err)
	return doc
}

func postForm(t *testing.T, client *http.Client, url string, body *bytes.Buffer, contentType string) *goquery.Document {
	t.Helper()

	resp, err := client.Post(url, contentType, body)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "/checker", resp.Request.URL.Path)

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	require.NoError(t, err)
	return doc
}

func waitForPage(t *testing.T, client *http.Client, url, state string) *goquery.Document {
	t.Helper()

	var doc *goquery.Document
	require.Eventually(t, func() bool {
		doc = getDoc(t, client, url)
		s, _ := doc.Find("section.checker").Attr("data-state")
		return s == state
	}, 2*time.Second, 10*time.Millisecond)
	return doc
}

func documentFiles() []formFile {
	return []formFile{
		{"document1", "essay.txt", "The quick brown fox jumps over the lazy dog."},
		{"document2", "source.txt", "A quick brown fox jumped over a lazy dog."},
	}
}

func TestHomeAndAboutPages(t *testing.T) {
	srv, client := newTestServer(t, &stubClient{})

	home := getDoc(t, client, srv.URL+"/")
	assert.Equal(t, "AI-Based Plagiarism Detection System", strings.TrimSpace(home.Find("h1").Text()))
	assert.Equal(t, 3, home.Find(".feature").Length())
	assert.Equal(t, "Start Free Analysis", home.Find(".cta a").Text())
	assert.True(t, home.Find(`.nav-link.active[href="/"]`).Length() == 1)

	about := getDoc(t, client, srv.URL+"/about")
	assert.Equal(t, 4, about.Find(".technique").Length())
	assert.Equal(t, 4, about.Find(".step").Length())
	assert.Equal(t, "01", about.Find(".step-number").First().Text())

	levels := about.Find(".levels li")
	require.Equal(t, 3, levels.Length())
	assert.Contains(t, levels.Eq(0).Text(), "Low (0-30%)")
	assert.Contains(t, levels.Eq(1).Text(), "Moderate (30-60%)")
	assert.Contains(t, levels.Eq(2).Text(), "High (60-100%)")
}

func TestCheckerFlow_Success(t *testing.T) {
	exact := 12.0
	stub := &stubClient{
		gate: make(chan struct{}),
		result: &models.CheckResult{
			PlagiarismPercentage: 42,
			ExactMatch:           &exact,
			TotalWords:           1500,
			TotalChars:           9000,
			ResultsDetails: []models.SentenceDetail{
				{Text: "Copied sentence.", IsPlagiarized: true},
				{Text: "Own sentence.", IsPlagiarized: false},
			},
			Sources: []models.Source{{Title: "Wiki", URL: "https://example.com/wiki", Percentage: 30}},
		},
	}
	srv, client := newTestServer(t, stub)

	idle := getDoc(t, client, srv.URL+"/checker")
	state, _ := idle.Find("section.checker").Attr("data-state")
	assert.Equal(t, "idle", state)
	assert.Equal(t, "Check Plagiarism", idle.Find(".checker-form button").Text())
	assert.Equal(t, 1, idle.Find(`input[type=file][name=document1]`).Length())
	assert.Equal(t, 1, idle.Find(`input[type=file][name=document2]`).Length())
	assert.Contains(t, idle.Find(".hint").Text(), "1.0 KiB")

	body, ct := multipartBody(t, map[string]string{"mode": "documents"}, documentFiles()...)
	loading := postForm(t, client, srv.URL+"/checker", body, ct)
	assert.Equal(t, "Analyzing Documents", loading.Find(".loading h2").Text())
	assert.Equal(t, "Comparing text and detecting similarities...", loading.Find(".loading p").Text())
	_, hasRefresh := loading.Find(`meta[http-equiv=refresh]`).Attr("content")
	assert.True(t, hasRefresh)
	assert.Equal(t, 0, loading.Find(".notice").Length())

	close(stub.gate)

	result := waitForPage(t, client, srv.URL+"/checker", "result")
	assert.Equal(t, "42%", result.Find(".result-percentage").Text())
	assert.Contains(t, result.Find(".result-level").Text(), "Moderate")
	assert.Equal(t, "12%", result.Find(".exact-match").Text())
	assert.Equal(t, "58%", result.Find(".unique-content").Text())
	assert.Equal(t, "Words: 1,500", result.Find(".total-words").Text())
	assert.Equal(t, 1, result.Find(".sentence.plagiarized").Length())
	assert.Equal(t, "1 of 2 sentences flagged", result.Find(".sentence-summary").Text())
	assert.Equal(t, "Wiki", result.Find(".source-title").Text())
	assert.Equal(t, "Check Another Document", result.Find(".reset-form button").Text())
	assert.Equal(t, "Analysis Complete", result.Find(".notice-default .notice-title").Text())

	// уведомление показывается один раз
	again := getDoc(t, client, srv.URL+"/checker")
	assert.Equal(t, 0, again.Find(".notice").Length())
	assert.Equal(t, []string{"essay.txt", "source.txt"}, stub.fields)

	resp, err := client.Get(srv.URL + "/checker/report?format=csv")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/csv", resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "attachment; filename=")

	reset, err := client.Post(srv.URL+"/checker/reset", "application/x-www-form-urlencoded", nil)
	require.NoError(t, err)
	defer reset.Body.Close()
	doc, err := goquery.NewDocumentFromReader(reset.Body)
	require.NoError(t, err)
	state, _ = doc.Find("section.checker").Attr("data-state")
	assert.Equal(t, "idle", state)
	assert.Equal(t, 0, doc.Find(".result").Length())

	notFound, err := client.Get(srv.URL + "/checker/report")
	require.NoError(t, err)
	defer notFound.Body.Close()
	assert.Equal(t, http.StatusNotFound, notFound.StatusCode)
}

func TestCheckerFlow_MissingDocument(t *testing.T) {
	srv, client := newTestServer(t, &stubClient{})

	body, ct := multipartBody(t, map[string]string{"mode": "documents"}, documentFiles()[0])
	doc := postForm(t, client, srv.URL+"/checker", body, ct)

	state, _ := doc.Find("section.checker").Attr("data-state")
	assert.Equal(t, "idle", state)
	assert.Equal(t, "Missing Files", doc.Find(".notice-destructive .notice-title").Text())
	assert.Equal(t, "Please upload both documents before checking.", doc.Find(".notice-description").Text())
	assert.Equal(t, "Please upload Document 2", doc.Find(`[data-field=document2] .field-error`).Text())
	assert.Equal(t, 0, doc.Find(`[data-field=document1] .field-error`).Length())
	assert.Equal(t, "essay.txt", doc.Find(`[data-field=document1] .file-name`).Text())
}

func TestCheckerFlow_ReusesKeptDocument(t *testing.T) {
	stub := &stubClient{result: &models.CheckResult{PlagiarismPercentage: 15}}
	srv, client := newTestServer(t, stub)

	files := documentFiles()

	body, ct := multipartBody(t, map[string]string{"mode": "documents"}, files[0])
	doc := postForm(t, client, srv.URL+"/checker", body, ct)
	assert.Equal(t, "Missing Files", doc.Find(".notice-destructive .notice-title").Text())
	assert.Contains(t, doc.Find(`[data-field=document1] .selected-file`).Text(), "Kept from last attempt")

	body, ct = multipartBody(t, map[string]string{"mode": "documents"}, files[1])
	postForm(t, client, srv.URL+"/checker", body, ct)

	waitForPage(t, client, srv.URL+"/checker", "result")

	stub.mu.Lock()
	defer stub.mu.Unlock()
	assert.Equal(t, []string{"essay.txt", "source.txt"}, stub.fields)
}

func TestCheckerFlow_Failure(t *testing.T) {
	srv, client := newTestServer(t, &stubClient{err: &integration.APIError{StatusCode: 500, Body: "internal"}})

	body, ct := multipartBody(t, map[string]string{"mode": "documents"}, documentFiles()...)
	postForm(t, client, srv.URL+"/checker", body, ct)

	doc := waitForPage(t, client, srv.URL+"/checker", "error")
	assert.Equal(t, "Analysis Failed", doc.Find(".notice-destructive .notice-title").Text())
	assert.Equal(t, 1, doc.Find(".checker-form").Length())
	assert.Equal(t, 1, doc.Find(".check-error").Length())
}

func TestCheckerFlow_ContentMode(t *testing.T) {
	srv, client := newTestServer(t, &stubClient{result: &models.CheckResult{PlagiarismPercentage: 80}})

	form := getDoc(t, client, srv.URL+"/checker?mode=content")
	assert.Equal(t, 1, form.Find("textarea[name=text]").Length())
	assert.Equal(t, 1, form.Find("input[name=url]").Length())
	assert.Equal(t, "Check Content", form.Find(".mode.active").Text())

	body, ct := multipartBody(t, map[string]string{"mode": "content", "url": "not a url"})
	doc := postForm(t, client, srv.URL+"/checker", body, ct)
	assert.Equal(t, "Invalid Input", doc.Find(".notice-title").Text())
	assert.NotEmpty(t, doc.Find(`[data-field=url] .field-error`).Text())
	assert.Equal(t, "not a url", func() string { v, _ := doc.Find("input[name=url]").Attr("value"); return v }())

	body, ct = multipartBody(t, map[string]string{"mode": "content", "text": "Essay to check."})
	postForm(t, client, srv.URL+"/checker", body, ct)

	result := waitForPage(t, client, srv.URL+"/checker", "result")
	assert.Equal(t, "80%", result.Find(".result-percentage").Text())
	assert.Contains(t, result.Find(".result-level").Text(), "High")
}

func TestCheckerFlow_UploadTooLarge(t *testing.T) {
	srv, client := newTestServer(t, &stubClient{})

	big := strings.Repeat("a", 5*testMaxFileSize)
	body, ct := multipartBody(t, map[string]string{"mode": "documents"},
		formFile{"document1", "a.txt", big},
		formFile{"document2", "b.txt", "short"},
	)
	doc := postForm(t, client, srv.URL+"/checker", body, ct)
	assert.Equal(t, "Upload Too Large", doc.Find(".notice-title").Text())
}

func TestCheckPlagiarismAPI(t *testing.T) {
	tests := []struct {
		name       string
		client     *stubClient
		values     map[string]string
		files      []formFile
		wantStatus int
		wantField  string
	}{
		{
			name:       "documents ok",
			client:     &stubClient{result: &models.CheckResult{PlagiarismPercentage: 15}},
			files:      documentFiles(),
			wantStatus: http.StatusOK,
		},
		{
			name:       "missing document",
			client:     &stubClient{},
			files:      documentFiles()[:1],
			wantStatus: http.StatusBadRequest,
			wantField:  "document2",
		},
		{
			name:       "empty content",
			client:     &stubClient{},
			wantStatus: http.StatusBadRequest,
			wantField:  "text",
		},
		{
			name:   "wrong type",
			client: &stubClient{},
			files: []formFile{
				{"document1", "a.pdf", "text"},
				{"document2", "b.txt", "text"},
			},
			wantStatus: http.StatusUnsupportedMediaType,
			wantField:  "document1",
		},
		{
			name:   "file too large",
			client: &stubClient{},
			files: []formFile{
				{"document1", "a.txt", strings.Repeat("a", testMaxFileSize+1)},
				{"document2", "b.txt", "text"},
			},
			wantStatus: http.StatusRequestEntityTooLarge,
			wantField:  "document1",
		},
		{
			name:       "upstream error",
			client:     &stubClient{err: &integration.APIError{StatusCode: 500, Body: "boom"}},
			values:     map[string]string{"text": "some text"},
			wantStatus: http.StatusBadGateway,
		},
		{
			name:       "upstream unavailable",
			client:     &stubClient{err: integration.ErrServiceUnavailable},
			values:     map[string]string{"text": "some text"},
			wantStatus: http.StatusServiceUnavailable,
		},
		{
			name:       "upstream invalid",
			client:     &stubClient{err: fmt.Errorf("%w: bad json", integration.ErrInvalidResponse)},
			values:     map[string]string{"text": "some text"},
			wantStatus: http.StatusBadGateway,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, client := newTestServer(t, tt.client)

			body, ct := multipartBody(t, tt.values, tt.files...)
			resp, err := client.Post(srv.URL+"/api/v1/check-plagiarism", ct, body)
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, tt.wantStatus, resp.StatusCode)

			var payload map[string]interface{}
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))

			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, true, payload["success"])
				data := payload["data"].(map[string]interface{})
				assert.Equal(t, "low", data["level"])
				assert.NotEmpty(t, data["check_id"])
				return
			}

			assert.Equal(t, false, payload["success"])
			errBody := payload["error"].(map[string]interface{})
			assert.Equal(t, float64(tt.wantStatus), errBody["code"])
			if tt.wantField != "" {
				fields := errBody["fields"].(map[string]interface{})
				assert.Contains(t, fields, tt.wantField)
			}
		})
	}
}

func TestHealthEndpoints(t *testing.T) {
	srv, client := newTestServer(t, &stubClient{})

	for _, path := range []string{"/health", "/ready", "/live"} {
		resp, err := client.Get(srv.URL + path)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
	}

	resp, err := client.Get(srv.URL + "/ready")
	require.NoError(t, err)
	defer resp.Body.Close()

	var payload map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	assert.Equal(t, "ready", payload["status"])
	assert.Contains(t, payload, "workers")
}
