package upload_test

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/code19m/errx"
	"github.com/gofiber/fiber/v2"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rise-and-shine/voiceout/filestore/localfs"
	"github.com/rise-and-shine/voiceout/http/server"
	"github.com/rise-and-shine/voiceout/http/server/middleware"
	"github.com/rise-and-shine/voiceout/upload"
)

type fixture struct {
	app *fiber.App
	fs  afero.Fs
}

// newFixture mounts the interceptor in front of a handler that echoes the
// attached media, or fails when the form value "fail" is set.
func newFixture(t *testing.T) fixture {
	t.Helper()

	fs := afero.NewMemMapFs()
	store, err := localfs.New(fs, localfs.Config{Dir: "/uploads", RefPrefix: "uploads"})
	require.NoError(t, err)

	frozen := time.UnixMilli(1_700_000_000_000)
	acceptor := upload.NewAcceptor(store, upload.Rules{}, upload.NewNamerWithClock(func() time.Time { return frozen }))

	srv := server.NewHTTPServer(server.Config{Port: 8080, BodyLimit: 1 << 20}, []server.Middleware{
		middleware.NewErrorHandlerMW(true),
	})
	srv.RegisterRouter(func(r fiber.Router) {
		r.Post("/posts", upload.NewInterceptMW(acceptor), func(c *fiber.Ctx) error {
			if c.FormValue("fail") != "" {
				return errx.New("insert failed", errx.WithCode("STORE_FAILED"))
			}
			return c.JSON(upload.FromContext(c.UserContext()))
		})
	})

	return fixture{app: srv.App(), fs: fs}
}

type part struct {
	field, filename, contentType, body string
}

func multipartBody(t *testing.T, values map[string]string, files ...part) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range values {
		require.NoError(t, w.WriteField(k, v))
	}
	for _, f := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="`+f.field+`"; filename="`+f.filename+`"`)
		h.Set("Content-Type", f.contentType)
		pw, err := w.CreatePart(h)
		require.NoError(t, err)
		_, err = pw.Write([]byte(f.body))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func countFiles(t *testing.T, fs afero.Fs) int {
	t.Helper()
	entries, err := afero.ReadDir(fs, "/uploads")
	require.NoError(t, err)
	return len(entries)
}

func TestInterceptMW_AttachesMedia(t *testing.T) {
	for _, field := range []string{"file", "photo"} {
		t.Run(field, func(t *testing.T) {
			f := newFixture(t)

			body, ctype := multipartBody(t, map[string]string{"voice_out": "hi"},
				part{field: field, filename: "cat.png", contentType: "image/png", body: "\x89PNG\r\n\x1a\n"})
			req := httptest.NewRequest(fiber.MethodPost, "/posts", body)
			req.Header.Set(fiber.HeaderContentType, ctype)

			resp, err := f.app.Test(req)
			require.NoError(t, err)
			defer resp.Body.Close()
			require.Equal(t, fiber.StatusOK, resp.StatusCode)

			var media upload.Media
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&media))
			assert.Equal(t, "uploads/1700000000000-cat.png", media.Ref)
			assert.Equal(t, "image", string(media.Kind))
			assert.Equal(t, 1, countFiles(t, f.fs))
		})
	}
}

func TestInterceptMW_PassThrough(t *testing.T) {
	f := newFixture(t)

	t.Run("json body", func(t *testing.T) {
		req := httptest.NewRequest(fiber.MethodPost, "/posts", strings.NewReader(`{"voice_out":"hi"}`))
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)

		resp, err := f.app.Test(req)
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	})

	t.Run("multipart without file", func(t *testing.T) {
		body, ctype := multipartBody(t, map[string]string{"voice_out": "hi"})
		req := httptest.NewRequest(fiber.MethodPost, "/posts", body)
		req.Header.Set(fiber.HeaderContentType, ctype)

		resp, err := f.app.Test(req)
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	})

	assert.Zero(t, countFiles(t, f.fs))
}

func TestInterceptMW_Rejects(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name     string
		file     part
		wantCode string
	}{
		{
			name:     "extension",
			file:     part{field: "file", filename: "run.exe", contentType: "image/png", body: "MZ"},
			wantCode: upload.CodeUnsupportedFileType,
		},
		{
			name:     "content type",
			file:     part{field: "file", filename: "cat.png", contentType: "application/x-msdownload", body: "MZ"},
			wantCode: upload.CodeUnsupportedFileType,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, ctype := multipartBody(t, map[string]string{"voice_out": "hi"}, tt.file)
			req := httptest.NewRequest(fiber.MethodPost, "/posts", body)
			req.Header.Set(fiber.HeaderContentType, ctype)

			resp, err := f.app.Test(req)
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

			var e map[string]any
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&e))
			assert.Equal(t, tt.wantCode, e["code"])
			assert.Equal(t, "unsupported file type", e["message"])
		})
	}

	t.Run("malformed multipart", func(t *testing.T) {
		req := httptest.NewRequest(fiber.MethodPost, "/posts", strings.NewReader("--nope\r\ngarbage"))
		req.Header.Set(fiber.HeaderContentType, "multipart/form-data; boundary=xyz")

		resp, err := f.app.Test(req)
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	})

	assert.Zero(t, countFiles(t, f.fs))
}

func TestInterceptMW_ReleasesMediaWhenHandlerFails(t *testing.T) {
	f := newFixture(t)

	body, ctype := multipartBody(t, map[string]string{"voice_out": "hi", "fail": "1"},
		part{field: "file", filename: "cat.png", contentType: "image/png", body: "\x89PNG\r\n\x1a\n"})
	req := httptest.NewRequest(fiber.MethodPost, "/posts", body)
	req.Header.Set(fiber.HeaderContentType, ctype)

	resp, err := f.app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
	assert.Zero(t, countFiles(t, f.fs))
}
