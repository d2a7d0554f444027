package scraper

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"museumscraper/pkg/config"
	"museumscraper/pkg/errors"
	"museumscraper/pkg/ledger"
	"museumscraper/pkg/logger"
	"museumscraper/pkg/models"
	"museumscraper/pkg/ratelimit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockMuseumServer mimics the collection API
type mockMuseumServer struct {
	server       *httptest.Server
	searchCalls  int32
	entityCalls  int32
	imageCalls   int32
	searchBodies []map[string]interface{}
	entities     map[string]string
	failSearch   bool
	imagePayload []byte
	mu           sync.Mutex
}

func newMockMuseumServer(t *testing.T) *mockMuseumServer {
	m := &mockMuseumServer{
		entities:     make(map[string]string),
		imagePayload: []byte("\xff\xd8\xff jpeg bytes"),
	}

	mux := http.NewServeMux()

	mux.HandleFunc("/api/search-entities/OBJECT", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&m.searchCalls, 1)
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		var body map[string]interface{}
		_ = json.NewDecoder(r.Body).Decode(&body)

		m.mu.Lock()
		defer m.mu.Unlock()
		m.searchBodies = append(m.searchBodies, body)

		if m.failSearch {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, `{"data":[{"id":101,"name":"first"},{"id":102,"name":"second"}]}`)
	})

	mux.HandleFunc("/api/entity/OBJECT/", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&m.entityCalls, 1)
		id := strings.TrimPrefix(r.URL.Path, "/api/entity/OBJECT/")

		m.mu.Lock()
		payload, ok := m.entities[id]
		m.mu.Unlock()

		if !ok {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, payload)
	})

	mux.HandleFunc("/images/", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&m.imageCalls, 1)
		if r.URL.Query().Get("w") != "3000" || r.URL.Query().Get("h") != "3000" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "image/jpeg")
		_, _ = w.Write(m.imagePayload)
	})

	m.server = httptest.NewServer(mux)
	t.Cleanup(m.server.Close)
	return m
}

func (m *mockMuseumServer) setEntity(id, payload string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entities[id] = payload
}

const ivanovEntity = `{
	"image": "/images/101.jpg",
	"data": [
		{"attribute": "author", "value": [], "data": [{"title": "Иванов"}]},
		{"attribute": "object_title", "value": ["Portrait"], "data": []},
		{"attribute": "material_techniq", "value": ["Холст; масло"], "data": []},
		{"attribute": "dimensions", "value": ["50 x 60"], "data": []},
		{"attribute": "typeiss", "value": [], "data": [{"title": "Живопись"}]}
	]
}`

func testConfig(t *testing.T, baseURL string) *config.Config {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Museum.BaseURL = baseURL
	cfg.Output.BaseDirectory = t.TempDir()
	cfg.RateLimit.Delay = 0
	return cfg
}

func newTestSession(t *testing.T, cfg *config.Config, opts ...Option) *Session {
	t.Helper()
	opts = append([]Option{
		WithLogger(logger.NewNopLogger()),
		WithLimiter(ratelimit.NewFixedDelay(0)),
	}, opts...)

	s, err := New(cfg, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func readRetryLog(t *testing.T, cfg *config.Config) string {
	t.Helper()
	data, err := os.ReadFile(cfg.RetryLogPath())
	if os.IsNotExist(err) {
		return ""
	}
	require.NoError(t, err)
	return string(data)
}

func TestRunCatalogueScenario(t *testing.T) {
	mock := newMockMuseumServer(t)
	mock.setEntity("101", ivanovEntity)

	cfg := testConfig(t, mock.server.URL)
	s := newTestSession(t, cfg)

	summary, err := s.Run(context.Background(), RunOptions{})
	require.NoError(t, err)

	assert.Equal(t, Summary{Processed: 2, Succeeded: 1, Failed: 1}, summary)
	assert.Equal(t, int32(1), atomic.LoadInt32(&mock.searchCalls))
	assert.Equal(t, int32(2), atomic.LoadInt32(&mock.entityCalls))
	assert.Equal(t, int32(1), atomic.LoadInt32(&mock.imageCalls))

	records, err := ledger.Load(ledger.FormatCSV, cfg.LedgerPath())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, models.Record{
		Author:     "Иванов",
		Title:      "Portrait",
		Material:   "Холст",
		Technique:  "масло",
		Dimensions: "50 x 60",
		Type:       "Живопись",
		Folder:     "ivanov",
		Image:      "101.jpg",
	}, records[0])

	image, err := os.ReadFile(filepath.Join(cfg.ImagesPath(), "ivanov", "101.jpg"))
	require.NoError(t, err)
	assert.Equal(t, mock.imagePayload, image)

	assert.Equal(t, "102\n", readRetryLog(t, cfg))

	// the search body carries the fund filter and a null query
	require.Len(t, mock.searchBodies, 1)
	body := mock.searchBodies[0]
	assert.Equal(t, float64(100), body["count"])
	assert.Equal(t, float64(0), body["start"])
	assert.Equal(t, "90", body["sort"])
	assert.Nil(t, body["query"])
	assert.Equal(t, map[string]interface{}{"fund": []interface{}{"14"}}, body["filters"])
}

func TestRunAdvancesCheckpoint(t *testing.T) {
	mock := newMockMuseumServer(t)
	mock.setEntity("101", ivanovEntity)
	mock.setEntity("102", ivanovEntity)

	cfg := testConfig(t, mock.server.URL)
	cfg.Museum.Count = 2
	s := newTestSession(t, cfg)

	_, err := s.Run(context.Background(), RunOptions{})
	require.NoError(t, err)

	cp, err := s.Checkpoints().Load()
	require.NoError(t, err)
	require.NotNil(t, cp)
	assert.Equal(t, 2, cp.NextStart)
	assert.Equal(t, 2, cp.TotalSucceeded)

	_, err = s.Run(context.Background(), RunOptions{Resume: true})
	require.NoError(t, err)

	require.Len(t, mock.searchBodies, 2)
	assert.Equal(t, float64(2), mock.searchBodies[1]["start"])

	cp, err = s.Checkpoints().Load()
	require.NoError(t, err)
	assert.Equal(t, 4, cp.NextStart)
	assert.Equal(t, 4, cp.TotalProcessed)
}

func TestRunCatalogueFailure(t *testing.T) {
	mock := newMockMuseumServer(t)
	mock.failSearch = true

	cfg := testConfig(t, mock.server.URL)
	s := newTestSession(t, cfg)

	summary, err := s.Run(context.Background(), RunOptions{})
	require.NoError(t, err)

	assert.Equal(t, Summary{}, summary)
	assert.Equal(t, int32(1), atomic.LoadInt32(&mock.searchCalls))
	assert.Equal(t, int32(0), atomic.LoadInt32(&mock.entityCalls))
	assert.False(t, s.Checkpoints().Exists())
}

func TestFetchCatalogueFailureIsEmpty(t *testing.T) {
	mock := newMockMuseumServer(t)
	mock.failSearch = true

	testLog := logger.NewTestLogger()
	s := newTestSession(t, testConfig(t, mock.server.URL), WithLogger(testLog))

	ids := s.FetchCatalogue(context.Background(), s.catalogueQuery(0))
	assert.Empty(t, ids)
	assert.True(t, testLog.HasMessage("Catalogue request failed"))
}

func TestFetchPageNullImage(t *testing.T) {
	mock := newMockMuseumServer(t)
	mock.setEntity("7", `{"image": null, "data": [{"attribute": "object_title", "value": ["Untitled"]}]}`)

	cfg := testConfig(t, mock.server.URL)
	s := newTestSession(t, cfg)

	record, err := s.FetchPage(context.Background(), "7")
	assert.Nil(t, record)
	require.Error(t, err)

	var typed *errors.Error
	require.True(t, stderrors.As(err, &typed))
	assert.Equal(t, errors.ErrorTypeParsing, typed.Type)

	assert.Equal(t, int32(0), atomic.LoadInt32(&mock.imageCalls))
	assert.Equal(t, "7\n", readRetryLog(t, cfg))
	assert.Equal(t, 0, s.Ledger().Len())
}

func TestFetchPageEmptyAttributes(t *testing.T) {
	mock := newMockMuseumServer(t)
	mock.setEntity("8", `{"image": "/images/8.jpg", "data": []}`)

	cfg := testConfig(t, mock.server.URL)
	s := newTestSession(t, cfg)

	_, err := s.FetchPage(context.Background(), "8")
	require.Error(t, err)
	assert.Equal(t, int32(0), atomic.LoadInt32(&mock.imageCalls))
	assert.Equal(t, "8\n", readRetryLog(t, cfg))
}

func TestFetchPageMalformedPayload(t *testing.T) {
	mock := newMockMuseumServer(t)
	mock.setEntity("9", `<html>not json</html>`)

	cfg := testConfig(t, mock.server.URL)
	s := newTestSession(t, cfg)

	_, err := s.FetchPage(context.Background(), "9")
	require.Error(t, err)
	assert.Equal(t, "9\n", readRetryLog(t, cfg))
}

func TestFetchPageToleratesOddlyShapedTags(t *testing.T) {
	mock := newMockMuseumServer(t)
	mock.setEntity("70", `{
		"image": "/images/70.jpg",
		"data": [
			{"attribute": "author", "data": [{"title": "Иванов"}]},
			{"attribute": "year", "value": [1890], "data": [{"title": 1890}]},
			{"attribute": "links", "value": {"href": "x"}},
			{"attribute": "object_title", "value": ["Portrait"]},
			{"attribute": "weight", "value": 12.5, "data": "n/a"}
		]
	}`)

	cfg := testConfig(t, mock.server.URL)
	s := newTestSession(t, cfg)

	record, err := s.FetchPage(context.Background(), "70")
	require.NoError(t, err)
	assert.Equal(t, "Иванов", record.Author)
	assert.Equal(t, "Portrait", record.Title)
	assert.Equal(t, 1, s.Ledger().Len())
	assert.Empty(t, readRetryLog(t, cfg))
}

func TestFetchPageUnknownAuthorGoesToUnsorted(t *testing.T) {
	mock := newMockMuseumServer(t)
	mock.setEntity("55", `{"image": "/images/55.jpg", "data": [{"attribute": "object_title", "value": ["Vase"]}]}`)

	cfg := testConfig(t, mock.server.URL)
	s := newTestSession(t, cfg)

	record, err := s.FetchPage(context.Background(), "55")
	require.NoError(t, err)
	assert.Equal(t, "unsorted", record.Folder)
	assert.Equal(t, "55.jpg", record.Image)
	assert.Empty(t, record.Author)

	_, err = os.Stat(filepath.Join(cfg.ImagesPath(), "unsorted", "55.jpg"))
	assert.NoError(t, err)
}

func TestFetchPageImageFailure(t *testing.T) {
	mock := newMockMuseumServer(t)
	mock.setEntity("60", `{"image": "/missing/60.jpg", "data": [{"attribute": "object_title", "value": ["Vase"]}]}`)

	cfg := testConfig(t, mock.server.URL)
	s := newTestSession(t, cfg)

	_, err := s.FetchPage(context.Background(), "60")
	require.Error(t, err)
	assert.Equal(t, 0, s.Ledger().Len())
	assert.Equal(t, "60\n", readRetryLog(t, cfg))
}

// failingLedger accepts nothing
type failingLedger struct{}

func (failingLedger) Append(models.Record) error { return stderrors.New("disk full") }
func (failingLedger) Records() []models.Record   { return nil }
func (failingLedger) Len() int                   { return 0 }
func (failingLedger) Path() string               { return "failing" }
func (failingLedger) Close() error               { return nil }

func TestLedgerWriteFailureIsRecoverable(t *testing.T) {
	mock := newMockMuseumServer(t)
	mock.setEntity("101", ivanovEntity)
	mock.setEntity("102", ivanovEntity)

	cfg := testConfig(t, mock.server.URL)
	testLog := logger.NewTestLogger()
	s := newTestSession(t, cfg, WithLedger(failingLedger{}), WithLogger(testLog))

	summary := s.ProcessIDs(context.Background(), []models.ObjectID{"101", "102"})

	assert.Equal(t, 2, summary.Processed)
	assert.Equal(t, 2, summary.Failed)
	assert.Equal(t, int32(2), atomic.LoadInt32(&mock.entityCalls))
	assert.Equal(t, "101\n102\n", readRetryLog(t, cfg))
	assert.True(t, testLog.HasError())
}

func TestRetryReplacesImageLeftByFailedLedgerWrite(t *testing.T) {
	mock := newMockMuseumServer(t)
	mock.setEntity("101", ivanovEntity)

	cfg := testConfig(t, mock.server.URL)
	first := newTestSession(t, cfg, WithLedger(failingLedger{}))
	_, err := first.FetchPage(context.Background(), "101")
	require.Error(t, err)

	imagePath := filepath.Join(cfg.ImagesPath(), "ivanov", "101.jpg")
	_, err = os.Stat(imagePath)
	require.NoError(t, err, "image is saved before the ledger row")

	testLog := logger.NewTestLogger()
	second := newTestSession(t, cfg, WithLogger(testLog))
	summary, err := second.Replay(context.Background(), false)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Succeeded)
	assert.Equal(t, 1, second.Ledger().Len())
	assert.True(t, testLog.HasMessage("Replacing existing image"))
}

func TestReplayEmptyLog(t *testing.T) {
	mock := newMockMuseumServer(t)

	cfg := testConfig(t, mock.server.URL)
	s := newTestSession(t, cfg)

	summary, err := s.Replay(context.Background(), false)
	require.NoError(t, err)

	assert.Equal(t, Summary{}, summary)
	assert.Equal(t, int32(0), atomic.LoadInt32(&mock.searchCalls))
	assert.Equal(t, int32(0), atomic.LoadInt32(&mock.entityCalls))
	assert.Equal(t, int32(0), atomic.LoadInt32(&mock.imageCalls))
	assert.Equal(t, 0, s.Ledger().Len())

	_, err = os.Stat(cfg.LedgerPath())
	assert.True(t, os.IsNotExist(err), "ledger file is not created")
}

func TestReplay(t *testing.T) {
	mock := newMockMuseumServer(t)
	mock.setEntity("101", ivanovEntity)

	cfg := testConfig(t, mock.server.URL)
	require.NoError(t, os.WriteFile(cfg.RetryLogPath(), []byte("101\n102\n102\n"), 0644))
	s := newTestSession(t, cfg)

	summary, err := s.Replay(context.Background(), false)
	require.NoError(t, err)

	assert.Equal(t, Summary{Processed: 3, Succeeded: 1, Failed: 2}, summary)
	assert.Equal(t, 1, s.Ledger().Len())
	// failing ids are logged again, the log only grows
	assert.Equal(t, "101\n102\n102\n102\n102\n", readRetryLog(t, cfg))
}

func TestReplayDedupe(t *testing.T) {
	mock := newMockMuseumServer(t)

	cfg := testConfig(t, mock.server.URL)
	require.NoError(t, os.WriteFile(cfg.RetryLogPath(), []byte("5\n5\n6\n5\n"), 0644))
	s := newTestSession(t, cfg)

	summary, err := s.Replay(context.Background(), true)
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Processed)
	assert.Equal(t, int32(2), atomic.LoadInt32(&mock.entityCalls))
}

func TestProcessIDsStopsWhenCancelled(t *testing.T) {
	mock := newMockMuseumServer(t)
	mock.setEntity("101", ivanovEntity)

	cfg := testConfig(t, mock.server.URL)
	ctx, cancel := context.WithCancel(context.Background())

	var results []Result
	s := newTestSession(t, cfg, WithResultHandler(func(r Result) {
		results = append(results, r)
		cancel()
	}))

	summary := s.ProcessIDs(ctx, []models.ObjectID{"101", "102", "103"})

	assert.True(t, summary.Interrupted)
	assert.Equal(t, 1, summary.Processed)
	require.Len(t, results, 1)
	assert.Equal(t, models.ObjectID("101"), results[0].ID)
	assert.NoError(t, results[0].Err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&mock.entityCalls))
}

func TestJSONLedgerSession(t *testing.T) {
	mock := newMockMuseumServer(t)
	mock.setEntity("101", ivanovEntity)

	cfg := testConfig(t, mock.server.URL)
	cfg.Output.LedgerFormat = ledger.FormatJSON
	cfg.Output.LedgerFile = "out.json"
	s := newTestSession(t, cfg)

	_, err := s.FetchPage(context.Background(), "101")
	require.NoError(t, err)

	records, err := ledger.Load(ledger.FormatJSON, cfg.LedgerPath())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "ivanov", records[0].Folder)
}
