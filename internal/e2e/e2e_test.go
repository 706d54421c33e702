package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/scanverify/internal/clock"
	"github.com/smallbiznis/scanverify/internal/config"
	"github.com/smallbiznis/scanverify/internal/migration"
	"github.com/smallbiznis/scanverify/internal/observability"
	scandomain "github.com/smallbiznis/scanverify/internal/scan/domain"
	"github.com/smallbiznis/scanverify/internal/server"
	"github.com/smallbiznis/scanverify/pkg/db"
	"go.uber.org/fx"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type testEnv struct {
	app     *fx.App
	server  *server.Server
	db      *gorm.DB
	baseURL string
	httpSrv *httptest.Server
}

var env *testEnv

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	setDefaultEnv()

	var err error
	env, err = startEnv()
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to start test environment:", err)
		os.Exit(1)
	}

	code := m.Run()
	env.shutdown()
	os.Exit(code)
}

func TestE2E_HealthCheck(t *testing.T) {
	resp, body := doJSON(t, http.MethodGet, env.baseURL+"/health", nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", resp.StatusCode, string(body))
	}
	if resp.Header.Get("X-Request-Id") == "" {
		t.Fatalf("expected request id header")
	}
}

func TestE2E_ScanLifecycle(t *testing.T) {
	resetDatabase(t, env.db)

	resp, body := doJSON(t, http.MethodPost, env.baseURL+"/api/scan", map[string]any{
		"barcode1": "ABC123",
		"barcode2": "ABC123",
	}, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", resp.StatusCode, string(body))
	}
	var scanResp struct {
		Status string `json:"status"`
		Result string `json:"result"`
	}
	decode(t, body, &scanResp)
	if scanResp.Status != "success" || scanResp.Result != "Match" {
		t.Fatalf("unexpected scan response: %s", string(body))
	}

	resp, body = doJSON(t, http.MethodPost, env.baseURL+"/api/scan", map[string]any{
		"barcode1": "ABC123",
		"barcode2": "XYZ789",
	}, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", resp.StatusCode, string(body))
	}
	decode(t, body, &scanResp)
	if scanResp.Result != "No Match" {
		t.Fatalf("expected No Match, got %q", scanResp.Result)
	}

	resp, body = doJSON(t, http.MethodPost, env.baseURL+"/api/scan", map[string]any{
		"barcode1": "",
		"barcode2": "XYZ789",
	}, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d: %s", resp.StatusCode, string(body))
	}

	_, body = doJSON(t, http.MethodGet, env.baseURL+"/api/stats", nil, nil)
	var stats scandomain.GlobalStats
	decode(t, body, &stats)
	if stats != (scandomain.GlobalStats{Total: 2, Passed: 1, Failed: 1}) {
		t.Fatalf("unexpected stats: %s", string(body))
	}

	_, body = doJSON(t, http.MethodGet, env.baseURL+"/api/stats/shifts", nil, nil)
	var shifts struct {
		Shifts []struct {
			Name  string `json:"shift_name"`
			Count int64  `json:"scan_count"`
		} `json:"shifts"`
	}
	decode(t, body, &shifts)
	if len(shifts.Shifts) != 3 {
		t.Fatalf("expected 3 shifts, got %s", string(body))
	}
	var total int64
	for _, shift := range shifts.Shifts {
		total += shift.Count
	}
	if total != 2 {
		t.Fatalf("expected 2 scans today, got %d", total)
	}
}

func TestE2E_RecentScansCapped(t *testing.T) {
	resetDatabase(t, env.db)

	for i := 0; i < 15; i++ {
		resp, body := doJSON(t, http.MethodPost, env.baseURL+"/api/scan", map[string]any{
			"barcode1": fmt.Sprintf("CODE-%02d", i),
			"barcode2": fmt.Sprintf("CODE-%02d", i),
		}, nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("scan %d failed: %d: %s", i, resp.StatusCode, string(body))
		}
	}

	_, body := doJSON(t, http.MethodGet, env.baseURL+"/api/scans", nil, nil)
	var scans []scandomain.ScanResponse
	decode(t, body, &scans)
	if len(scans) != 10 {
		t.Fatalf("expected 10 scans, got %d", len(scans))
	}
	if scans[0].Barcode1 != "CODE-14" {
		t.Fatalf("expected newest scan first, got %s", scans[0].Barcode1)
	}
	for i := 1; i < len(scans); i++ {
		if scans[i].CreatedAt.After(scans[i-1].CreatedAt) {
			t.Fatalf("scans not ordered newest first at %d", i)
		}
	}
}

func TestE2E_CORSPreflight(t *testing.T) {
	resp, _ := doJSON(t, http.MethodOptions, env.baseURL+"/api/scan", nil, map[string]string{
		"Origin":                        "http://localhost:3000",
		"Access-Control-Request-Method": http.MethodPost,
	})
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected status 204, got %d", resp.StatusCode)
	}
	if resp.Header.Get("Access-Control-Allow-Origin") != "http://localhost:3000" {
		t.Fatalf("missing allow origin header")
	}
}

func TestE2E_MetricsEndpoint(t *testing.T) {
	doJSON(t, http.MethodGet, env.baseURL+"/api/stats", nil, nil)

	resp, body := doJSON(t, http.MethodGet, env.baseURL+"/metrics", nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.StatusCode)
	}
	if !strings.Contains(string(body), "scanverify_http_requests_total") {
		t.Fatalf("expected http request counter in metrics output")
	}
}

func startEnv() (*testEnv, error) {
	var (
		srv    *server.Server
		dbConn *gorm.DB
	)

	app := fx.New(
		observability.Module,
		config.Module,
		clock.Module,
		fx.Provide(provideTestDBConfig),
		fx.Provide(provideTestDB),
		migration.Module,
		server.Module,
		fx.Populate(&srv, &dbConn),
		fx.NopLogger,
	)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := app.Start(ctx); err != nil {
		return nil, err
	}

	httpSrv := httptest.NewServer(srv.Engine())

	return &testEnv{
		app:     app,
		server:  srv,
		db:      dbConn,
		baseURL: httpSrv.URL,
		httpSrv: httpSrv,
	}, nil
}

func provideTestDBConfig(cfg config.Config) db.Config {
	dbCfg := db.FromAppConfig(cfg)
	dbCfg.Type = db.TypeSQLite
	return dbCfg
}

func provideTestDB(lc fx.Lifecycle) (*gorm.DB, error) {
	conn, err := gorm.Open(sqlite.Open("file:e2e?mode=memory&cache=shared"), &gorm.Config{
		Logger:  logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, err
	}
	sqlDB, err := conn.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return sqlDB.Close()
		},
	})
	return conn, nil
}

func (e *testEnv) shutdown() {
	if e == nil {
		return
	}
	if e.httpSrv != nil {
		e.httpSrv.Close()
	}
	if e.app != nil {
		_ = e.app.Stop(context.Background())
	}
}

func setDefaultEnv() {
	setEnvIfEmpty("ENVIRONMENT", "test")
	setEnvIfEmpty("HTTP_ADDR", "127.0.0.1:0")
	setEnvIfEmpty("LOG_LEVEL", "error")
	setEnvIfEmpty("RATE_LIMIT_ENABLED", "false")
}

func setEnvIfEmpty(key, value string) {
	if strings.TrimSpace(os.Getenv(key)) != "" {
		return
	}
	_ = os.Setenv(key, value)
}

func resetDatabase(t *testing.T, dbConn *gorm.DB) {
	t.Helper()
	if err := dbConn.Exec("DELETE FROM scans").Error; err != nil {
		t.Fatalf("truncate scans: %v", err)
	}
}

func decode(t *testing.T, body []byte, out any) {
	t.Helper()
	if err := json.Unmarshal(body, out); err != nil {
		t.Fatalf("decode response %q: %v", string(body), err)
	}
}

func doJSON(t *testing.T, method, reqURL string, payload any, headers map[string]string) (*http.Response, []byte) {
	t.Helper()

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("encode json: %v", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, reqURL, body)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	client := &http.Client{Timeout: 15 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read response: %v", err)
	}
	return resp, data
}
