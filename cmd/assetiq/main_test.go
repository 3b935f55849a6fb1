package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/neomorfeo/assetiq/internal/config"
	"github.com/neomorfeo/assetiq/internal/domain"
)

func testConfig(t *testing.T, port string) config.Config {
	t.Helper()
	return config.Config{
		Port:               port,
		DatabasePath:       t.TempDir() + "/test-run.db",
		KafkaTopic:         "assetiq.decompositions",
		LogLevel:           "info",
		LogFormat:          "text",
		OTelServiceName:    "assetiq",
		OTelServiceVersion: "0.1.0",
		OTelEnvironment:    "test",
		OTelExporter:       "none",
	}
}

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	cfg := testConfig(t, "8080")
	cfg.LogFormat = "json"
	cfg.LogLevel = "warn"

	logger, err := newLogger(cfg, &buf)
	if err != nil {
		t.Fatalf("newLogger: %v", err)
	}
	logger.Info("hidden")
	logger.Warn("shown", "k", "v")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info record written at warn level: %s", out)
	}
	if !strings.Contains(out, `"msg":"shown"`) || !strings.Contains(out, `"k":"v"`) {
		t.Errorf("expected JSON warn record, got: %s", out)
	}
}

// TestRun exercises run() end-to-end: River, HTTP server, and graceful
// shutdown when the context is cancelled.
func TestRun(t *testing.T) {
	cfg := testConfig(t, "19876")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh := make(chan error, 1)
	go func() { errCh <- run(ctx, cfg, discard) }()

	// Wait for the HTTP server to become ready.
	serverURL := "http://localhost:19876"
	var resp *http.Response
	for i := 0; i < 50; i++ {
		req, _ := http.NewRequestWithContext(context.Background(), http.MethodGet, serverURL+"/api/v1/assets/missing", nil)
		req.Header.Set("X-Tenant-ID", "acme")
		r, reqErr := http.DefaultClient.Do(req)
		if reqErr == nil {
			resp = r
			break
		}
		time.Sleep(100 * time.Millisecond)
	}
	if resp == nil {
		t.Fatal("server did not start within 5 seconds")
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusNotFound)
	}

	cancel()

	select {
	case err := <-errCh:
		if err != nil {
			t.Fatalf("run() returned error: %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("run() did not exit within 10 seconds")
	}
}

// TestRun_InvalidDB verifies run() returns an error for an invalid database path.
func TestRun_InvalidDB(t *testing.T) {
	cfg := testConfig(t, "19877")
	cfg.DatabasePath = "/nonexistent/path/db.sqlite"

	if err := run(context.Background(), cfg, discard); err == nil {
		t.Fatal("expected error for invalid database path, got nil")
	}
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

// seedPlan registers an asset and plans its decomposition directly through
// the service.
func seedPlan(t *testing.T, cfg config.Config) domain.Plan {
	t.Helper()
	ctx := context.Background()

	rt, err := openRuntime(ctx, cfg, nil, discard)
	if err != nil {
		t.Fatalf("openRuntime: %v", err)
	}
	defer rt.Close()

	admin := operator("")
	asset, err := rt.svc.RegisterAsset(ctx, admin, domain.NewAssetInput{
		TenantID:      "acme",
		Code:          "PUMP-1",
		Name:          "Centrifugal pump",
		Category:      "pumps",
		Status:        domain.AssetAvailable,
		PurchasePrice: decimal.NewFromInt(1000),
	})
	if err != nil {
		t.Fatalf("RegisterAsset: %v", err)
	}

	plan, err := rt.svc.CreatePlan(ctx, admin, domain.CreatePlanInput{
		AssetID: asset.ID,
		Items: []domain.PlannedItem{
			{Name: "Motor", Quantity: 1, UnitPrice: decimal.NewFromInt(400)},
			{Name: "Impeller", Quantity: 2, UnitPrice: decimal.NewFromInt(150)},
		},
	})
	if err != nil {
		t.Fatalf("CreatePlan: %v", err)
	}
	return plan
}

func TestPlansCommands(t *testing.T) {
	cfg := testConfig(t, "8080")
	plan := seedPlan(t, cfg)

	out, err := execute(t, "--database", cfg.DatabasePath, "plans", "list", "--status", "pending")
	if err != nil {
		t.Fatalf("plans list: %v", err)
	}
	if !strings.Contains(out, plan.Request.Number) || !strings.Contains(out, "PENDING") {
		t.Errorf("plans list output missing pending plan %s:\n%s", plan.Request.Number, out)
	}

	out, err = execute(t, "--database", cfg.DatabasePath, "plans", "execute", plan.Request.ID)
	if err != nil {
		t.Fatalf("plans execute: %v", err)
	}
	for _, want := range []string{"COMPLETED", "PUMP-1 is now RETIRED", "Motor", "Impeller", "self_origin", "400.00"} {
		if !strings.Contains(out, want) {
			t.Errorf("plans execute output missing %q:\n%s", want, out)
		}
	}

	if _, err := execute(t, "--database", cfg.DatabasePath, "plans", "execute", plan.Request.ID); err == nil {
		t.Error("expected second execution to fail")
	}

	out, err = execute(t, "--database", cfg.DatabasePath, "plans", "list", "--tenant", "other")
	if err != nil {
		t.Fatalf("plans list: %v", err)
	}
	if strings.Contains(out, plan.Request.Number) {
		t.Errorf("other tenant sees plan %s:\n%s", plan.Request.Number, out)
	}
}

func TestPlansList_InvalidStatus(t *testing.T) {
	cfg := testConfig(t, "8080")

	if _, err := execute(t, "--database", cfg.DatabasePath, "plans", "list", "--status", "done"); err == nil {
		t.Fatal("expected error for unknown status")
	}
}

func TestMigrateCmd(t *testing.T) {
	cfg := testConfig(t, "8080")

	out, err := execute(t, "--database", cfg.DatabasePath, "migrate")
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if !strings.Contains(out, "up to date") {
		t.Errorf("unexpected output: %s", out)
	}
}

func TestTokenCmd(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")

	out, err := execute(t, "token", "--subject", "alice", "--tenant", "acme", "--capability", "tenant:cross")
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	if parts := strings.Split(strings.TrimSpace(out), "."); len(parts) != 3 {
		t.Errorf("expected a JWT, got %q", out)
	}

	if _, err := execute(t, "token", "--capability", "root"); err == nil {
		t.Error("expected error for unknown capability")
	}
}

func TestTokenCmd_NoSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	if _, err := execute(t, "token"); err == nil {
		t.Fatal("expected error without a JWT secret")
	}
}
