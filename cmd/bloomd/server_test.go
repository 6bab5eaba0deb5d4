package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	requireLib "github.com/stretchr/testify/require"
	"github.com/vkuptcov/bloomstore"
)

func newTestRouter(t *testing.T) (*gin.Engine, *test.Hook) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log, hook := test.NewNullLogger()
	filters := bloom.NewFilters(bloom.NewMemoryStore())
	filters.SetLogger(bloom.LogrusLogger(log))
	return newRouter(filters, log), hook
}

func call(t *testing.T, r http.Handler, method, path, body string) (int, map[string]interface{}) {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	res := map[string]interface{}{}
	requireLib.NoError(t, json.Unmarshal(w.Body.Bytes(), &res), "json response expected, got %q", w.Body.String())
	return w.Code, res
}

func TestCommands(t *testing.T) {
	require := requireLib.New(t)
	r, _ := newTestRouter(t)

	code, res := call(t, r, http.MethodPut, "/filters/a", `{"capacity": 1000, "error_rate": 0.01, "seed": 42}`)
	require.Equal(http.StatusOK, code)
	require.Equal("OK", res["status"])
	require.Equal(float64(42), res["seed"])

	code, _ = call(t, r, http.MethodPost, "/filters/a/elements", `{"element": "hello"}`)
	require.Equal(http.StatusOK, code)

	code, res = call(t, r, http.MethodGet, "/filters/a/elements/hello", "")
	require.Equal(http.StatusOK, code)
	require.Equal(float64(1), res["exists"])

	code, res = call(t, r, http.MethodGet, "/filters/a/elements/world", "")
	require.Equal(http.StatusOK, code)
	require.Equal(float64(0), res["exists"])

	code, res = call(t, r, http.MethodGet, "/filters/a", "")
	require.Equal(http.StatusOK, code)
	require.Equal(float64(9568), res["bits"])
	require.Equal(float64(7), res["probes"])

	code, _ = call(t, r, http.MethodPut, "/filters/b", `{"capacity": 1000, "error_rate": 0.01, "seed": 42}`)
	require.Equal(http.StatusOK, code)
	code, _ = call(t, r, http.MethodPost, "/filters/b/elements", `{"element": "world"}`)
	require.Equal(http.StatusOK, code)
	code, _ = call(t, r, http.MethodPost, "/filters/a/merge/b", "")
	require.Equal(http.StatusOK, code)
	_, res = call(t, r, http.MethodGet, "/filters/a/elements/world", "")
	require.Equal(float64(1), res["exists"])

	code, _ = call(t, r, http.MethodDelete, "/filters/a", "")
	require.Equal(http.StatusOK, code)
	code, _ = call(t, r, http.MethodGet, "/filters/a/elements/hello", "")
	require.Equal(http.StatusNotFound, code)
}

func TestElementsOutsidePathSegments(t *testing.T) {
	require := requireLib.New(t)
	r, _ := newTestRouter(t)
	code, _ := call(t, r, http.MethodPut, "/filters/a", `{"capacity": 1000, "error_rate": 0.001, "seed": 5}`)
	require.Equal(http.StatusOK, code)

	code, _ = call(t, r, http.MethodPost, "/filters/a/elements", `{"element": "a/b"}`)
	require.Equal(http.StatusOK, code)
	code, _ = call(t, r, http.MethodPost, "/filters/a/elements", `{"element": ""}`)
	require.Equal(http.StatusOK, code, "an empty element is a valid element")

	code, res := call(t, r, http.MethodGet, "/filters/a/elements/a%2Fb", "")
	require.Equal(http.StatusOK, code)
	require.Equal(float64(1), res["exists"])

	code, res = call(t, r, http.MethodGet, "/filters/a/elements?element=a%2Fb", "")
	require.Equal(http.StatusOK, code)
	require.Equal(float64(1), res["exists"])

	code, res = call(t, r, http.MethodGet, "/filters/a/elements?element=", "")
	require.Equal(http.StatusOK, code)
	require.Equal(float64(1), res["exists"])

	code, res = call(t, r, http.MethodGet, "/filters/a/elements?element=a", "")
	require.Equal(http.StatusOK, code)
	require.Equal(float64(0), res["exists"])

	code, _ = call(t, r, http.MethodGet, "/filters/a/elements", "")
	require.Equal(http.StatusBadRequest, code)
}

func TestInitZeroSeed(t *testing.T) {
	require := requireLib.New(t)
	r, _ := newTestRouter(t)

	for _, key := range []string{"a", "b"} {
		code, res := call(t, r, http.MethodPut, "/filters/"+key, `{"capacity": 1000, "error_rate": 0.01, "seed": 0}`)
		require.Equal(http.StatusOK, code)
		require.Equal(float64(0), res["seed"])
	}
	code, _ := call(t, r, http.MethodPost, "/filters/b/elements", `{"element": "x"}`)
	require.Equal(http.StatusOK, code)
	code, _ = call(t, r, http.MethodPost, "/filters/a/merge/b", "")
	require.Equal(http.StatusOK, code)
	_, res := call(t, r, http.MethodGet, "/filters/a/elements/x", "")
	require.Equal(float64(1), res["exists"])
}

func TestInitDefaults(t *testing.T) {
	require := requireLib.New(t)
	r, _ := newTestRouter(t)

	code, res := call(t, r, http.MethodPut, "/filters/defaults", "")
	require.Equal(http.StatusOK, code)
	require.Equal(float64(bloom.DefaultCapacity), res["capacity"])
	require.InDelta(bloom.DefaultErrorRate, res["error_rate"], 1e-6)
	require.NotZero(res["seed"])
}

func TestErrorStatuses(t *testing.T) {
	r, hook := newTestRouter(t)
	call(t, r, http.MethodPut, "/filters/a", `{"capacity": 1000, "error_rate": 0.01, "seed": 1}`)
	call(t, r, http.MethodPut, "/filters/b", `{"capacity": 1000, "error_rate": 0.01, "seed": 2}`)

	cases := []struct {
		name   string
		method string
		path   string
		body   string
		status int
	}{
		{name: "bad error rate", method: http.MethodPut, path: "/filters/c", body: `{"error_rate": 2}`, status: http.StatusBadRequest},
		{name: "too many probes", method: http.MethodPut, path: "/filters/c", body: `{"capacity": 1, "error_rate": 1e-31}`, status: http.StatusBadRequest},
		{name: "malformed body", method: http.MethodPut, path: "/filters/c", body: `{"capacity": "many"}`, status: http.StatusBadRequest},
		{name: "missing element", method: http.MethodPost, path: "/filters/a/elements", body: `{}`, status: http.StatusBadRequest},
		{name: "missing filter", method: http.MethodPost, path: "/filters/missing/elements", body: `{"element": "x"}`, status: http.StatusNotFound},
		{name: "missing info", method: http.MethodGet, path: "/filters/missing", status: http.StatusNotFound},
		{name: "incompatible merge", method: http.MethodPost, path: "/filters/a/merge/b", status: http.StatusConflict},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			code, res := call(t, r, c.method, c.path, c.body)
			requireLib.Equal(t, c.status, code)
			requireLib.NotEmpty(t, res["error"])
		})
	}

	// client errors are logged by the filters at the warning level only
	for _, entry := range hook.AllEntries() {
		requireLib.Equal(t, logrus.WarnLevel, entry.Level)
	}
}

func TestStatusOf(t *testing.T) {
	require := requireLib.New(t)
	require.Equal(http.StatusInternalServerError, statusOf(bloom.ErrCorruptBuffer))
	require.Equal(http.StatusConflict, statusOf(bloom.ErrWrongType))
}

func TestLoadConfig(t *testing.T) {
	require := requireLib.New(t)

	cfg, err := LoadConfig("")
	require.NoError(err)
	require.Equal(DefaultConfig(), cfg)

	path := filepath.Join(t.TempDir(), "bloomd.json")
	require.NoError(os.WriteFile(path, []byte(`{
		"server": {"addr": ":9090"},
		"store": {"backend": "redis", "redis": {"addr": "redis:6379"}},
		"filter": {"capacity": 5000}
	}`), 0o600))
	cfg, err = LoadConfig(path)
	require.NoError(err)
	require.Equal(":9090", cfg.Server.Addr)
	require.Equal("info", cfg.Server.LogLevel, "unset fields keep their defaults")
	require.Equal(BackendRedis, cfg.Store.Backend)
	require.Equal("redis:6379", cfg.Store.Redis.Addr)
	require.Equal(10, cfg.Store.Redis.MaxRetries)
	require.Equal(uint64(5000), cfg.Filter.Capacity)
	require.Equal(bloom.DefaultErrorRate, cfg.Filter.ErrorRate)

	require.NoError(os.WriteFile(path, []byte(`{"store": {"backend": "etcd"}}`), 0o600))
	_, err = LoadConfig(path)
	require.Error(err)

	require.NoError(os.WriteFile(path, []byte(`{"filter": {"error_rate": 3}}`), 0o600))
	_, err = LoadConfig(path)
	require.ErrorIs(err, bloom.ErrInvalidArgument)
}

func TestOpenMemoryStore(t *testing.T) {
	store, closeStore, err := openStore(StoreConfig{Backend: BackendMemory})
	requireLib.NoError(t, err)
	requireLib.IsType(t, &bloom.MemoryStore{}, store)
	requireLib.NoError(t, closeStore())
}

func TestOpenBitcaskStore(t *testing.T) {
	store, closeStore, err := openStore(StoreConfig{Backend: BackendBitcask, Bitcask: BitcaskConfig{Dir: t.TempDir()}})
	requireLib.NoError(t, err)
	requireLib.IsType(t, &bloom.DiskStore{}, store)
	requireLib.NoError(t, closeStore())
}
