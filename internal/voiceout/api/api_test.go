package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gorilla/websocket"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rise-and-shine/voiceout/broadcast"
	"github.com/rise-and-shine/voiceout/filestore"
	"github.com/rise-and-shine/voiceout/filestore/localfs"
	"github.com/rise-and-shine/voiceout/http/server"
	"github.com/rise-and-shine/voiceout/http/server/middleware"
	"github.com/rise-and-shine/voiceout/internal/testdb"
	"github.com/rise-and-shine/voiceout/internal/voiceout/api"
	"github.com/rise-and-shine/voiceout/internal/voiceout/domain"
	"github.com/rise-and-shine/voiceout/internal/voiceout/repo"
	"github.com/rise-and-shine/voiceout/upload"
)

type fixture struct {
	srv *server.HTTPServer
	hub *broadcast.Hub
	fs  afero.Fs
}

type fixtureOption func(filestore.FileStore) filestore.FileStore

// failingUploads makes every upload fail the way a full disk or an
// unreachable bucket does.
func failingUploads(store filestore.FileStore) filestore.FileStore {
	return uploadFailingStore{FileStore: store}
}

type uploadFailingStore struct {
	filestore.FileStore
}

func (uploadFailingStore) Upload(context.Context, filestore.Object) (*filestore.FileInfo, error) {
	return nil, errors.New("no space left on device")
}

func newFixture(t *testing.T, opts ...fixtureOption) *fixture {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	db := testdb.New(t)
	require.NoError(t, repo.Migrate(ctx, db))

	fs := afero.NewMemMapFs()
	var store filestore.FileStore
	store, err := localfs.New(fs, localfs.Config{Dir: "/uploads", RefPrefix: "uploads"})
	require.NoError(t, err)
	for _, opt := range opts {
		store = opt(store)
	}

	hub := broadcast.NewHub()
	bus := broadcast.NewBus()
	t.Cleanup(func() { _ = bus.Close() })
	require.NoError(t, hub.Consume(ctx, bus))

	srv := server.NewHTTPServer(server.Config{Port: 8080, BodyLimit: 1 << 20}, []server.Middleware{
		middleware.NewErrorHandlerMW(true),
		middleware.NewTimeoutMW(5 * time.Second),
	})
	srv.RegisterRouter(api.NewRouter(api.Deps{
		Posts:          repo.NewPostRepo(db),
		Feedbacks:      repo.NewFeedbackRepo(db),
		Media:          store,
		Acceptor:       upload.NewAcceptor(store, upload.DefaultRules(), upload.NewNamer()),
		Publisher:      bus,
		Hub:            hub,
		MediaRoute:     "/uploads",
		MediaRefPrefix: "uploads/",
	}))

	return &fixture{srv: srv, hub: hub, fs: fs}
}

// listen serves the app on a loopback port and returns its websocket URL.
func (f *fixture) listen(t *testing.T) string {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	go func() { _ = f.srv.Listener(ln) }()
	t.Cleanup(func() { _ = f.srv.Stop() })

	return "ws://" + ln.Addr().String() + "/ws"
}

func (f *fixture) do(t *testing.T, req *http.Request) (*http.Response, []byte) {
	t.Helper()

	resp, err := f.srv.App().Test(req, 5000)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, body
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return req
}

func multipartRequest(t *testing.T, text, filename, contentType, content string) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if text != "" {
		require.NoError(t, w.WriteField("voice_out", text))
	}
	if filename != "" {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
		h.Set("Content-Type", contentType)
		pw, err := w.CreatePart(h)
		require.NoError(t, err)
		_, err = pw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(fiber.MethodPost, "/api/postVoiceOut", &buf)
	req.Header.Set(fiber.HeaderContentType, w.FormDataContentType())
	return req
}

type errorBody struct {
	Message string            `json:"message"`
	Code    string            `json:"code"`
	Fields  map[string]string `json:"fields"`
}

func TestHealth(t *testing.T) {
	f := newFixture(t)

	resp, body := f.do(t, httptest.NewRequest(fiber.MethodGet, "/health", nil))
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok"}`, string(body))
}

func TestCreatePost(t *testing.T) {
	t.Run("json body", func(t *testing.T) {
		f := newFixture(t)

		resp, body := f.do(t, jsonRequest(fiber.MethodPost, "/api/postVoiceOut", `{"voice_out":"hello"}`))
		require.Equal(t, fiber.StatusOK, resp.StatusCode, string(body))

		var post domain.Post
		require.NoError(t, json.Unmarshal(body, &post))
		assert.NotEmpty(t, post.ID)
		assert.Equal(t, "hello", post.VoiceOut)
		assert.Nil(t, post.Media)
	})

	t.Run("multipart with image is served back", func(t *testing.T) {
		f := newFixture(t)
		png := "\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"

		resp, body := f.do(t, multipartRequest(t, "look", "cat.png", "image/png", png))
		require.Equal(t, fiber.StatusOK, resp.StatusCode, string(body))

		var post domain.Post
		require.NoError(t, json.Unmarshal(body, &post))
		require.NotNil(t, post.Media)
		assert.True(t, strings.HasPrefix(*post.Media, "uploads/"), *post.Media)
		assert.True(t, strings.HasSuffix(*post.Media, "-cat.png"), *post.Media)
		assert.Equal(t, "image", post.MediaType)

		resp, body = f.do(t, httptest.NewRequest(fiber.MethodGet, "/"+*post.Media, nil))
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
		assert.Equal(t, "image/png", resp.Header.Get(fiber.HeaderContentType))
		assert.Equal(t, png, string(body))
	})

	tests := []struct {
		name     string
		req      func(t *testing.T) *http.Request
		wantCode string
	}{
		{
			name:     "missing text",
			req:      func(*testing.T) *http.Request { return jsonRequest(fiber.MethodPost, "/api/postVoiceOut", `{}`) },
			wantCode: "VALIDATION_FAILED",
		},
		{
			name: "unsupported file",
			req: func(t *testing.T) *http.Request {
				return multipartRequest(t, "x", "run.exe", "application/octet-stream", "MZ")
			},
			wantCode: upload.CodeUnsupportedFileType,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)

			resp, body := f.do(t, tt.req(t))
			assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode, string(body))

			var e errorBody
			require.NoError(t, json.Unmarshal(body, &e))
			assert.Equal(t, tt.wantCode, e.Code)
			assert.NotEmpty(t, e.Message)
		})
	}

	rejected := []struct {
		name       string
		opts       []fixtureOption
		req        func(t *testing.T) *http.Request
		wantStatus int
		wantCode   string
	}{
		{
			name: "unsupported file",
			req: func(t *testing.T) *http.Request {
				return multipartRequest(t, "x", "run.exe", "application/octet-stream", "MZ")
			},
			wantStatus: fiber.StatusBadRequest,
			wantCode:   upload.CodeUnsupportedFileType,
		},
		{
			name: "media store failure",
			opts: []fixtureOption{failingUploads},
			req: func(t *testing.T) *http.Request {
				return multipartRequest(t, "x", "notes.txt", "text/plain", "plain text")
			},
			wantStatus: fiber.StatusInternalServerError,
			wantCode:   filestore.CodeStoreFailed,
		},
	}

	for _, tt := range rejected {
		t.Run(tt.name+" creates and broadcasts nothing", func(t *testing.T) {
			f := newFixture(t, tt.opts...)
			conn, resp, err := websocket.DefaultDialer.Dial(f.listen(t), nil)
			require.NoError(t, err)
			_ = resp.Body.Close()
			t.Cleanup(func() { _ = conn.Close() })
			require.Eventually(t, func() bool { return f.hub.Len() == 1 }, 2*time.Second, 10*time.Millisecond)

			httpResp, body := f.do(t, tt.req(t))
			require.Equal(t, tt.wantStatus, httpResp.StatusCode, string(body))
			var e errorBody
			require.NoError(t, json.Unmarshal(body, &e))
			assert.Equal(t, tt.wantCode, e.Code)

			httpResp, body = f.do(t, httptest.NewRequest(fiber.MethodGet, "/api/getVoiceOuts", nil))
			require.Equal(t, fiber.StatusOK, httpResp.StatusCode)
			assert.JSONEq(t, `[]`, string(body))

			require.NoError(t, conn.SetReadDeadline(time.Now().Add(200*time.Millisecond)))
			_, _, err = conn.ReadMessage()
			require.Error(t, err, "rejected post must not be broadcast")
		})
	}

	t.Run("missing text with file leaves no media behind", func(t *testing.T) {
		f := newFixture(t)

		resp, _ := f.do(t, multipartRequest(t, "", "cat.png", "image/png", "\x89PNG\r\n\x1a\n"))
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

		entries, err := afero.ReadDir(f.fs, "/uploads")
		require.NoError(t, err)
		assert.Empty(t, entries)
	})
}

func TestListPosts(t *testing.T) {
	f := newFixture(t)
	for _, text := range []string{"one", "two", "three"} {
		resp, _ := f.do(t, jsonRequest(fiber.MethodPost, "/api/postVoiceOut", `{"voice_out":"`+text+`"}`))
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
		time.Sleep(2 * time.Millisecond) // distinct timestamps
	}

	texts := func(t *testing.T, body []byte) []string {
		t.Helper()
		var posts []domain.Post
		require.NoError(t, json.Unmarshal(body, &posts))
		out := make([]string, 0, len(posts))
		for _, p := range posts {
			out = append(out, p.VoiceOut)
		}
		return out
	}

	t.Run("all", func(t *testing.T) {
		resp, body := f.do(t, httptest.NewRequest(fiber.MethodGet, "/api/getVoiceOuts", nil))
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
		assert.Equal(t, []string{"three", "two", "one"}, texts(t, body))
		assert.Empty(t, resp.Header.Get("X-Total-Count"))
	})

	t.Run("paginated", func(t *testing.T) {
		resp, body := f.do(t, httptest.NewRequest(fiber.MethodGet, "/api/getVoiceOuts?page=2&limit=2", nil))
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
		assert.Equal(t, []string{"one"}, texts(t, body))
		assert.Equal(t, "3", resp.Header.Get("X-Total-Count"))
	})

	t.Run("limit over cap", func(t *testing.T) {
		resp, _ := f.do(t, httptest.NewRequest(fiber.MethodGet, "/api/getVoiceOuts?limit=500", nil))
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	})
}

func TestDeletePost(t *testing.T) {
	f := newFixture(t)

	resp, body := f.do(t, multipartRequest(t, "bye", "notes.txt", "text/plain", "plain text"))
	require.Equal(t, fiber.StatusOK, resp.StatusCode, string(body))
	var post domain.Post
	require.NoError(t, json.Unmarshal(body, &post))
	require.NotNil(t, post.Media)

	resp, body = f.do(t, httptest.NewRequest(fiber.MethodDelete, "/api/deleteVoiceOut/"+post.ID, nil))
	require.Equal(t, fiber.StatusOK, resp.StatusCode, string(body))
	var deleted domain.Post
	require.NoError(t, json.Unmarshal(body, &deleted))
	assert.Equal(t, post.ID, deleted.ID)

	resp, _ = f.do(t, httptest.NewRequest(fiber.MethodGet, "/"+*post.Media, nil))
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp, body = f.do(t, httptest.NewRequest(fiber.MethodDelete, "/api/deleteVoiceOut/"+post.ID, nil))
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	var e errorBody
	require.NoError(t, json.Unmarshal(body, &e))
	assert.Equal(t, domain.CodePostNotFound, e.Code)
}

func TestCreateFeedback(t *testing.T) {
	f := newFixture(t)

	resp, body := f.do(t, jsonRequest(fiber.MethodPost, "/api/createFeedback",
		`{"email":"a@example.com","feedback":"love it","subject":"hi"}`))
	require.Equal(t, fiber.StatusCreated, resp.StatusCode, string(body))

	var fb domain.Feedback
	require.NoError(t, json.Unmarshal(body, &fb))
	assert.Equal(t, "love it", fb.Feedback)
	require.NotNil(t, fb.Subject)
	assert.Equal(t, "hi", *fb.Subject)

	resp, body = f.do(t, jsonRequest(fiber.MethodPost, "/api/createFeedback", `{"email":"a@example.com"}`))
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	var e errorBody
	require.NoError(t, json.Unmarshal(body, &e))
	assert.Contains(t, e.Fields, "feedback")
}

func TestBroadcastOnCreate(t *testing.T) {
	f := newFixture(t)
	url := f.listen(t)

	dial := func(t *testing.T) *websocket.Conn {
		t.Helper()
		conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
		require.NoError(t, err)
		_ = resp.Body.Close()
		t.Cleanup(func() { _ = conn.Close() })
		return conn
	}

	a, b := dial(t), dial(t)
	require.Eventually(t, func() bool { return f.hub.Len() == 2 }, 2*time.Second, 10*time.Millisecond)

	resp, body := f.do(t, jsonRequest(fiber.MethodPost, "/api/postVoiceOut", `{"voice_out":"live"}`))
	require.Equal(t, fiber.StatusOK, resp.StatusCode, string(body))
	var created domain.Post
	require.NoError(t, json.Unmarshal(body, &created))

	for _, conn := range []*websocket.Conn{a, b} {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		_, data, err := conn.ReadMessage()
		require.NoError(t, err)

		var msg struct {
			Type string      `json:"type"`
			Data domain.Post `json:"data"`
		}
		require.NoError(t, json.Unmarshal(data, &msg))
		assert.Equal(t, broadcast.TypeVoiceOut, msg.Type)
		assert.Equal(t, created.ID, msg.Data.ID)
		assert.Equal(t, "live", msg.Data.VoiceOut)
	}

	late := dial(t)
	require.Eventually(t, func() bool { return f.hub.Len() == 3 }, 2*time.Second, 10*time.Millisecond)
	require.NoError(t, late.SetReadDeadline(time.Now().Add(200*time.Millisecond)))
	_, _, err := late.ReadMessage()
	require.Error(t, err, "late connection must not receive earlier posts")

	resp, body = f.do(t, httptest.NewRequest(fiber.MethodGet, "/api/getVoiceOuts", nil))
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var posts []domain.Post
	require.NoError(t, json.Unmarshal(body, &posts))
	require.NotEmpty(t, posts)
	assert.Equal(t, created.ID, posts[0].ID)
}
