package handlers

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	telegram "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/smith3v/vocab-srs/pkg/db"
	"github.com/smith3v/vocab-srs/pkg/importexport"
	"github.com/smith3v/vocab-srs/pkg/internal/testutil"
	"github.com/smith3v/vocab-srs/pkg/logger"
	"github.com/smith3v/vocab-srs/pkg/session"
	"gorm.io/gorm"
)

type recordedRequest struct {
	path        string
	method      string
	contentType string
	body        []byte
}

type mockClient struct {
	mu        sync.Mutex
	requests  []recordedRequest
	response  string
	responses map[string]string
}

func newMockClient() *mockClient {
	return &mockClient{
		response:  `{"ok":true,"result":{}}`,
		responses: make(map[string]string),
	}
}

// respond sets the reply for one API method, e.g. "sendMessage".
func (m *mockClient) respond(method, body string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[method] = body
}

func (m *mockClient) responseFor(path string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	method := path[strings.LastIndex(path, "/")+1:]
	if body, ok := m.responses[method]; ok {
		return body
	}
	return m.response
}

func (m *mockClient) snapshot() []recordedRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]recordedRequest(nil), m.requests...)
}

// requestsTo returns recorded calls of one API method.
func (m *mockClient) requestsTo(method string) []recordedRequest {
	var out []recordedRequest
	for _, req := range m.snapshot() {
		if strings.HasSuffix(req.path, "/"+method) {
			out = append(out, req)
		}
	}
	return out
}

// sentTexts returns the text field of every sendMessage call in order.
func (m *mockClient) sentTexts(t *testing.T) []string {
	t.Helper()
	var texts []string
	for _, req := range m.requestsTo("sendMessage") {
		texts = append(texts, multipartField(t, req, "text"))
	}
	return texts
}

func multipartField(t *testing.T, req recordedRequest, fieldName string) string {
	t.Helper()
	mediaType, params, err := mime.ParseMediaType(req.contentType)
	if err != nil {
		t.Fatalf("failed to parse media type: %v", err)
	}
	if !strings.HasPrefix(mediaType, "multipart/") {
		t.Fatalf("unexpected media type: %s", mediaType)
	}
	reader := multipart.NewReader(bytes.NewReader(req.body), params["boundary"])
	for {
		part, err := reader.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("failed to read multipart part: %v", err)
		}
		if part.FormName() == fieldName {
			data, err := io.ReadAll(part)
			if err != nil {
				t.Fatalf("failed to read multipart field: %v", err)
			}
			return string(data)
		}
	}
	return ""
}

func (m *mockClient) Do(req *http.Request) (*http.Response, error) {
	body, err := io.ReadAll(req.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read request body: %w", err)
	}
	if err := req.Body.Close(); err != nil {
		return nil, fmt.Errorf("failed to close request body: %w", err)
	}
	m.mu.Lock()
	m.requests = append(m.requests, recordedRequest{
		path:        req.URL.Path,
		method:      req.Method,
		contentType: req.Header.Get("Content-Type"),
		body:        body,
	})
	m.mu.Unlock()

	resp := &http.Response{
		StatusCode: http.StatusOK,
		Body:       io.NopCloser(strings.NewReader(m.responseFor(req.URL.Path))),
		Header:     make(http.Header),
	}
	return resp, nil
}

func (m *mockClient) lastMessageText(t *testing.T) string {
	t.Helper()
	requests := m.snapshot()
	if len(requests) == 0 {
		t.Fatalf("expected at least one recorded request")
	}
	req := requests[len(requests)-1]

	mediaType, params, err := mime.ParseMediaType(req.contentType)
	if err != nil {
		t.Fatalf("failed to parse media type: %v", err)
	}
	if !strings.HasPrefix(mediaType, "multipart/") {
		t.Fatalf("unexpected media type: %s", mediaType)
	}

	reader := multipart.NewReader(bytes.NewReader(req.body), params["boundary"])
	for {
		part, err := reader.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("failed to read multipart part: %v", err)
		}
		if part.FormName() == "text" {
			data, err := io.ReadAll(part)
			if err != nil {
				t.Fatalf("failed to read text part: %v", err)
			}
			return string(data)
		}
	}
	t.Fatalf("text field not found in request")
	return ""
}

func (m *mockClient) lastMultipartField(t *testing.T, fieldName string) (string, string) {
	t.Helper()
	requests := m.snapshot()
	if len(requests) == 0 {
		t.Fatalf("expected at least one recorded request")
	}
	req := requests[len(requests)-1]

	mediaType, params, err := mime.ParseMediaType(req.contentType)
	if err != nil {
		t.Fatalf("failed to parse media type: %v", err)
	}
	if !strings.HasPrefix(mediaType, "multipart/") {
		t.Fatalf("unexpected media type: %s", mediaType)
	}

	reader := multipart.NewReader(bytes.NewReader(req.body), params["boundary"])
	for {
		part, err := reader.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("failed to read multipart part: %v", err)
		}
		if part.FormName() == fieldName {
			data, err := io.ReadAll(part)
			if err != nil {
				t.Fatalf("failed to read multipart field: %v", err)
			}
			return string(data), part.FileName()
		}
	}
	t.Fatalf("field %q not found in request", fieldName)
	return "", ""
}

func (m *mockClient) lastRequestBody(t *testing.T) string {
	t.Helper()
	requests := m.snapshot()
	if len(requests) == 0 {
		t.Fatalf("expected at least one recorded request")
	}
	return string(requests[len(requests)-1].body)
}

func newTestTelegramBot(t *testing.T, client *mockClient) *telegram.Bot {
	t.Helper()
	b, err := telegram.New("test-token",
		telegram.WithSkipGetMe(),
		telegram.WithHTTPClient(time.Second, client),
	)
	if err != nil {
		t.Fatalf("failed to create test bot: %v", err)
	}
	return b
}

func newTestUpdate(text string, userID int64) *models.Update {
	return &models.Update{
		Message: &models.Message{
			From: &models.User{
				ID: userID,
			},
			Chat: models.Chat{
				ID:   userID,
				Type: models.ChatTypePrivate,
			},
			Text: text,
		},
	}
}

type fileServer struct {
	body   string
	status int
	urls   []string
}

func (f *fileServer) Do(req *http.Request) (*http.Response, error) {
	f.urls = append(f.urls, req.URL.String())
	status := f.status
	if status == 0 {
		status = http.StatusOK
	}
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(f.body)),
		Header:     make(http.Header),
	}, nil
}

func newTestDocumentUpdate(fileName, fileID string, userID int64) *models.Update {
	return &models.Update{
		Message: &models.Message{
			From: &models.User{
				ID: userID,
			},
			Chat: models.Chat{
				ID:   userID,
				Type: models.ChatTypePrivate,
			},
			Document: &models.Document{
				FileID:   fileID,
				FileName: fileName,
			},
		},
	}
}

func newTestCallbackUpdate(data string, userID, chatID int64, messageID int) *models.Update {
	return &models.Update{
		CallbackQuery: &models.CallbackQuery{
			ID:   "callback-1",
			From: models.User{ID: userID},
			Data: data,
			Message: models.MaybeInaccessibleMessage{
				Type: models.MaybeInaccessibleMessageTypeMessage,
				Message: &models.Message{
					ID: messageID,
					Chat: models.Chat{
						ID:   chatID,
						Type: models.ChatTypePrivate,
					},
				},
			},
		},
	}
}

type testEnv struct {
	handlers   *Handlers
	repo       *db.Repository
	gdb        *gorm.DB
	registry   *session.Registry
	dispatcher *session.Dispatcher
	client     *mockClient
	bot        *telegram.Bot
	files      *fileServer
	now        time.Time
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger.SetLogLevel(logger.ERROR)

	now := time.Date(2024, time.March, 10, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	repo, gdb := testutil.NewRepository(t)
	dispatcher := session.NewDispatcher(1, nil)
	t.Cleanup(dispatcher.Close)
	manager := session.NewManager(repo, dispatcher, session.WithClock(clock))
	registry := session.NewRegistry(clock, time.Hour)
	files := &fileServer{}

	client := newMockClient()
	client.respond("sendMessage", `{"ok":true,"result":{"message_id":77,"chat":{"id":1,"type":"private"}}}`)
	client.respond("answerCallbackQuery", `{"ok":true,"result":true}`)

	return &testEnv{
		handlers:   New(repo, manager, registry, WithClock(clock), WithHTTPClient(files)),
		repo:       repo,
		gdb:        gdb,
		registry:   registry,
		dispatcher: dispatcher,
		client:     client,
		bot:        newTestTelegramBot(t, client),
		files:      files,
		now:        now,
	}
}

func (e *testEnv) importWords(t *testing.T, userID int64, entries ...importexport.Entry) {
	t.Helper()
	if _, err := e.repo.EnsureUser(context.Background(), userID); err != nil {
		t.Fatalf("failed to ensure user: %v", err)
	}
	if _, _, err := e.repo.ImportWords(context.Background(), userID, entries); err != nil {
		t.Fatalf("failed to import words: %v", err)
	}
}

// seedDueWord stores a word reviewed before and due daysOverdue days ago.
func (e *testEnv) seedDueWord(t *testing.T, userID int64, term string, daysOverdue int) {
	t.Helper()
	next := e.now.AddDate(0, 0, -daysOverdue)
	reviewed := next.AddDate(0, 0, -1)
	word := db.Word{
		UserID:       userID,
		Term:         term,
		Translation:  term + "-tr",
		EaseFactor:   2.5,
		IntervalDays: 1,
		Repetitions:  1,
		NextReview:   &next,
		LastReviewed: &reviewed,
		Status:       "learning",
	}
	if err := e.gdb.Create(&word).Error; err != nil {
		t.Fatalf("failed to seed word: %v", err)
	}
}

func lastText(t *testing.T, texts []string) string {
	t.Helper()
	if len(texts) == 0 {
		t.Fatalf("expected at least one sent message")
	}
	return texts[len(texts)-1]
}
