package cli

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"io"
	"net"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"mediamap/internal/config"
	"mediamap/internal/document"
	"mediamap/internal/logging"
	"mediamap/internal/model"
	"mediamap/internal/repository"
	"mediamap/internal/service"
	serviceMocks "mediamap/internal/service/mocks"
	"mediamap/internal/storage"
)

type fakeUploader struct {
	keys  []string
	bytes map[string]string
	err   error
}

func (f *fakeUploader) Put(_ context.Context, key string, r io.Reader, opt storage.PutObjectOptions) (storage.ObjectInfo, error) {
	if f.err != nil {
		return storage.ObjectInfo{}, f.err
	}
	data, _ := io.ReadAll(r)
	if f.bytes == nil {
		f.bytes = map[string]string{}
	}
	f.keys = append(f.keys, key)
	f.bytes[key] = string(data)
	return storage.ObjectInfo{Key: key, Size: opt.Size, ContentType: opt.ContentType}, nil
}

// testApp returns an app whose side effects are recorded instead of performed.
func testApp(t *testing.T) (*app, *[]string) {
	t.Helper()
	var logBuf bytes.Buffer
	logging.SetOutput(&logBuf)
	t.Cleanup(func() { logging.SetOutput(nil) })

	opened := &[]string{}
	a := newApp()
	a.openBrowser = func(u string) error {
		*opened = append(*opened, u)
		return nil
	}
	a.portInUse = func(string) bool { return false }
	a.runServer = func(context.Context, *fiber.App, net.Listener) error { return nil }
	a.openDB = func(context.Context, config.DatabaseConfig) (*sql.DB, error) {
		return nil, errors.New("no database in tests")
	}
	a.uploader = func(context.Context, config.MinIOConfig) (storage.Uploader, error) {
		return nil, errors.New("no bucket in tests")
	}
	return a, opened
}

func execute(a *app, args ...string) (string, error) {
	cmd := a.rootCommand()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return buf.String(), err
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

const mediaCSV = `latitude,longitude,title,description,media_path,datetime
41.88,-87.63,Lunch,Loop,Media/a.jpg,2023-05-01 12:00:00
,,Lost,,,
41.89,-87.62,Clip,,Media/gone.mp4,2023-05-01 13:30:00
`

func TestVersionCmd(t *testing.T) {
	orig := version
	version = "test-version-1.0.0"
	defer func() { version = orig }()

	a, _ := testApp(t)
	out, err := execute(a, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "mediamap version test-version-1.0.0")
}

func TestRootCmd_Commands(t *testing.T) {
	var names []string
	for _, c := range NewRootCommand().Commands() {
		names = append(names, c.Name())
	}
	sort.Strings(names)
	assert.Subset(t, names, []string{"generate", "import", "push", "serve", "version"})
}

func TestRootCmd_ExplicitConfigMissing(t *testing.T) {
	a, _ := testApp(t)
	_, err := execute(a, "--config", filepath.Join(t.TempDir(), "nope.toml"), "version")
	assert.ErrorContains(t, err, "read config file")
}

func TestGenerateCmd(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "media.csv")
	output := filepath.Join(dir, "map.html")
	writeFile(t, input, mediaCSV)
	writeFile(t, filepath.Join(dir, "Media", "a.jpg"), "jpeg")

	a, opened := testApp(t)
	out, err := execute(a, "generate", input, output, "--media-root", dir, "--open=false", "--title", "Trip")
	require.NoError(t, err)

	assert.FileExists(t, output)
	assert.Contains(t, out, "Map created: "+output)
	assert.Regexp(t, regexp.MustCompile(`Total markers\s+2`), out)
	assert.Regexp(t, regexp.MustCompile(`With media\s+1`), out)
	assert.Regexp(t, regexp.MustCompile(`Missing media files\s+1`), out)
	assert.Regexp(t, regexp.MustCompile(`Rows without coordinates\s+1`), out)
	assert.Contains(t, out, "Media uses http://localhost:8001")
	assert.Empty(t, *opened)

	html, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Contains(t, string(html), "<title>Trip</title>")
	assert.Contains(t, string(html), "http://localhost:8001/Media/a.jpg")
}

func TestGenerateCmd_OpenLocal(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "media.csv")
	writeFile(t, input, mediaCSV)

	a, opened := testApp(t)
	_, err := execute(a, "generate", "-i", input, "-o", filepath.Join(dir, "out.html"),
		"--url-mode", "local", "--open")
	require.NoError(t, err)

	require.Len(t, *opened, 1)
	assert.True(t, strings.HasPrefix((*opened)[0], "file:///"))
	assert.True(t, strings.HasSuffix((*opened)[0], "/out.html"))
}

func TestGenerateCmd_OpenServer(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "media.csv")
	writeFile(t, input, mediaCSV)

	a, opened := testApp(t)
	out, err := execute(a, "generate", input, filepath.Join(dir, "out.html"), "--port", "9123", "--open")
	require.NoError(t, err)

	assert.Contains(t, out, "No server on port 9123")
	require.Len(t, *opened, 1)
	assert.True(t, strings.HasPrefix((*opened)[0], "http://localhost:9123/"))
}

func TestGenerateCmd_Serve(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "media.csv")
	writeFile(t, input, mediaCSV)

	a, opened := testApp(t)
	a.portInUse = func(string) bool { return true }
	out, err := execute(a, "generate", input, filepath.Join(dir, "out.html"), "--serve", "--open")
	require.NoError(t, err)

	assert.Contains(t, out, "Server already running on port 8001")
	require.Len(t, *opened, 1)
}

func TestGenerateCmd_Errors(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "notes.txt"), "x")
	writeFile(t, filepath.Join(dir, "empty.csv"), "latitude,longitude\n,\n")
	writeFile(t, filepath.Join(dir, "media.csv"), mediaCSV)

	tests := []struct {
		name    string
		args    []string
		wantErr error
		wantMsg string
	}{
		{
			name:    "unsupported format",
			args:    []string{"generate", filepath.Join(dir, "notes.txt")},
			wantErr: repository.ErrUnsupportedFormat,
		},
		{
			name:    "missing input",
			args:    []string{"generate", filepath.Join(dir, "missing.csv")},
			wantErr: repository.ErrSourceNotFound,
		},
		{
			name:    "no valid records",
			args:    []string{"generate", filepath.Join(dir, "empty.csv"), filepath.Join(dir, "o.html")},
			wantMsg: "no valid records",
		},
		{
			name:    "explicit events missing",
			args:    []string{"generate", filepath.Join(dir, "media.csv"), "--events", filepath.Join(dir, "ev.csv")},
			wantErr: repository.ErrSourceNotFound,
		},
		{
			name:    "invalid url mode",
			args:    []string{"generate", filepath.Join(dir, "media.csv"), "--url-mode", "ftp"},
			wantMsg: "invalid media url mode",
		},
		{
			name:    "database unavailable",
			args:    []string{"generate", "--table", "media_markers"},
			wantMsg: "connect to database: no database in tests",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, _ := testApp(t)
			_, err := execute(a, append(tt.args, "--open=false")...)
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			if tt.wantMsg != "" {
				assert.Contains(t, err.Error(), tt.wantMsg)
			}
		})
	}
}

func TestGenerateCmd_Request(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "media.xlsx")
	events := filepath.Join(dir, "events.csv")
	output := filepath.Join(dir, "map.html")
	writeFile(t, input, "not really a workbook")
	writeFile(t, events, "LATITUDE,LONGITUDE\n")

	mockSvc := new(serviceMocks.MockMapService)
	a, _ := testApp(t)
	a.newService = func(*config.AppConfig, storage.Storage, *document.Assembler) service.MapService { return mockSvc }

	mockSvc.On("Generate", mock.Anything, mock.MatchedBy(func(r service.GenerateRequest) bool {
		return r.Media.Name() == "media.xlsx" && r.Events != nil && r.Events.Name() == "events.csv" && r.Output == output
	})).Return(&service.GenerateResult{Output: output, Stats: model.Stats{Total: 3, EventA: 1, EventB: 2}}, nil).Once()

	out, err := execute(a, "generate", input, output, "--events", events, "--open=false")
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`Total markers\s+3`), out)
	assert.Regexp(t, regexp.MustCompile(`Ankle Monitor Fix\s+2`), out)
	mockSvc.AssertExpectations(t)

	t.Run("service error", func(t *testing.T) {
		mockSvc.On("Generate", mock.Anything, mock.Anything).Return(nil, service.ErrNoValidRecords).Once()

		_, err := execute(a, "generate", input, output, "--open=false")
		assert.ErrorIs(t, err, service.ErrNoValidRecords)
		mockSvc.AssertExpectations(t)
	})
}

func TestGenerateCmd_FromTable(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT to_regclass($1) IS NOT NULL`)).
		WithArgs("public.media_markers").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "public"."media_markers"`)).
		WillReturnRows(sqlmock.NewRows([]string{"latitude", "longitude", "title"}).
			AddRow("41.88", "-87.63", "From db").
			AddRow(nil, nil, "No coords"))
	mock.ExpectClose()

	a, _ := testApp(t)
	a.openDB = func(context.Context, config.DatabaseConfig) (*sql.DB, error) { return db, nil }

	output := filepath.Join(t.TempDir(), "map.html")
	out, err := execute(a, "generate", "--table", "public.media_markers", "-o", output, "--open=false")
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`Total markers\s+1`), out)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestServeCmd(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "map.html"), "<html></html>")

	t.Run("missing document", func(t *testing.T) {
		a, _ := testApp(t)
		_, err := execute(a, "serve", "other.html", "--root", dir)
		assert.ErrorContains(t, err, "map file not found")
	})

	t.Run("missing media folder", func(t *testing.T) {
		a, _ := testApp(t)
		_, err := execute(a, "serve", "map.html", "--root", dir)
		assert.ErrorContains(t, err, "media folder not found")
	})

	require.NoError(t, os.Mkdir(filepath.Join(dir, "Media"), 0o755))

	t.Run("serves and opens", func(t *testing.T) {
		a, opened := testApp(t)
		var served bool
		a.runServer = func(ctx context.Context, app *fiber.App, ln net.Listener) error {
			served = true
			return ln.Close()
		}

		// port 0 lets the kernel pick a free port
		out, err := execute(a, "serve", "map.html", "--root", dir, "--port", "0", "--open")
		require.NoError(t, err)
		assert.True(t, served)
		assert.Contains(t, out, "Serving "+dir)
		assert.Equal(t, []string{"http://localhost:0/map.html"}, *opened)
	})

	t.Run("port busy", func(t *testing.T) {
		ln, err := net.Listen("tcp", ":0")
		require.NoError(t, err)
		defer ln.Close()
		_, port, _ := net.SplitHostPort(ln.Addr().String())

		a, _ := testApp(t)
		_, err = execute(a, "serve", "map.html", "--root", dir, "--port", port, "--open=false")
		assert.ErrorContains(t, err, "listen on port "+port)
	})
}

func TestImportCmd(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "events.csv")
	writeFile(t, input, "LATITUDE,LONGITUDE,Event\n41.8,-87.6,ATT Location\n")

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DROP TABLE IF EXISTS "events"`)).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(`CREATE TABLE IF NOT EXISTS "events" ("LATITUDE" TEXT, "LONGITUDE" TEXT, "Event" TEXT)`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	prep := mock.ExpectPrepare(regexp.QuoteMeta(`INSERT INTO "events"`))
	prep.ExpectExec().WithArgs("41.8", "-87.6", "ATT Location").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectClose()

	a, _ := testApp(t)
	a.openDB = func(context.Context, config.DatabaseConfig) (*sql.DB, error) { return db, nil }

	out, err := execute(a, "import", input, "--table", "events", "--replace")
	require.NoError(t, err)
	assert.Contains(t, out, "Imported 1 rows from events.csv into events")
	assert.NoError(t, mock.ExpectationsWereMet())

	t.Run("table required", func(t *testing.T) {
		a, _ := testApp(t)
		_, err := execute(a, "import", input)
		assert.EqualError(t, err, "--table is required")
	})
}

func TestPushCmd(t *testing.T) {
	dir := t.TempDir()
	media := filepath.Join(dir, "Media")
	writeFile(t, filepath.Join(media, "a.jpg"), "jpeg")
	writeFile(t, filepath.Join(media, "day one", "b.mp4"), "video")

	t.Run("uploads with relative keys", func(t *testing.T) {
		up := &fakeUploader{}
		a, _ := testApp(t)
		a.uploader = func(context.Context, config.MinIOConfig) (storage.Uploader, error) { return up, nil }

		out, err := execute(a, "push", media)
		require.NoError(t, err)
		assert.Contains(t, out, "Uploaded 2 files")
		require.Len(t, up.keys, 2)
		assert.Equal(t, "jpeg", up.bytes[storage.ObjectKey(filepath.Join(media, "a.jpg"))])
		assert.True(t, strings.HasSuffix(up.keys[1], "Media/day one/b.mp4"), up.keys[1])
	})

	t.Run("dry run", func(t *testing.T) {
		a, _ := testApp(t)
		out, err := execute(a, "push", media, "--dry-run")
		require.NoError(t, err)
		assert.Contains(t, out, "2 files would be uploaded")
	})

	t.Run("upload failure", func(t *testing.T) {
		a, _ := testApp(t)
		a.uploader = func(context.Context, config.MinIOConfig) (storage.Uploader, error) {
			return &fakeUploader{err: errors.New("access denied")}, nil
		}
		_, err := execute(a, "push", media)
		assert.ErrorContains(t, err, "access denied")
	})

	t.Run("no bucket", func(t *testing.T) {
		a, _ := testApp(t)
		_, err := execute(a, "push", media)
		assert.ErrorContains(t, err, "object storage: no bucket in tests")
	})
}

func TestServedPath(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)

	assert.Equal(t, "out/map.html", servedPath(filepath.Join(wd, "out", "map.html")))
	assert.Equal(t, "map.html", servedPath("map.html"))

	outside := filepath.Join(filepath.Dir(wd), "elsewhere.html")
	assert.Equal(t, outside, servedPath(outside))
}
