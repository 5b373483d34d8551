package ingest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/goliatone/go-coerce/coerce"
	"github.com/goliatone/go-coerce/logger"
)

type testApp struct {
	Name     string `koanf:"name"`
	Env      string `koanf:"env"`
	Version  string `koanf:"version"`
	Database struct {
		DSN string `koanf:"dsn"`
	} `koanf:"database"`
	Server struct {
		Port int    `koanf:"port"`
		URL  string `koanf:"url"`
	} `koanf:"server"`
}

func (a testApp) Validate() error {
	if a.Name == "" {
		return fmt.Errorf("app name is required")
	}
	return nil
}

func writeTempConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestContainerLoadFromFile(t *testing.T) {
	path := writeTempConfig(t, "config.json",
		`{"name": "TestApp", "env": "testing", "database": {"dsn": "test-dsn"}}`)

	app := &testApp{}
	container := New(app).WithConfigPath(path)

	if err := container.Load(context.Background()); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if app.Name != "TestApp" {
		t.Errorf("expected Name 'TestApp', got %q", app.Name)
	}
	if app.Env != "testing" {
		t.Errorf("expected Env 'testing', got %q", app.Env)
	}
	if app.Database.DSN != "test-dsn" {
		t.Errorf("expected Database.DSN 'test-dsn', got %q", app.Database.DSN)
	}
}

func TestContainerLoadYAMLFile(t *testing.T) {
	path := writeTempConfig(t, "config.yaml", "name: YamlApp\nserver:\n  port: 8080\n")

	app := &testApp{}
	container := New(app).WithConfigPath(path)

	if err := container.Load(context.Background()); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if app.Name != "YamlApp" {
		t.Errorf("expected Name 'YamlApp', got %q", app.Name)
	}
	if app.Server.Port != 8080 {
		t.Errorf("expected port 8080, got %d", app.Server.Port)
	}
}

func TestContainerWeakScalars(t *testing.T) {
	// JSON numbers arrive as float64, ports declared as strings still land
	path := writeTempConfig(t, "config.json",
		`{"name": "App", "server": {"port": "9090"}}`)

	app := &testApp{}
	container := New(app).WithConfigPath(path)

	if err := container.Load(context.Background()); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if app.Server.Port != 9090 {
		t.Errorf("expected port 9090, got %d", app.Server.Port)
	}
}

func TestEnvLoader(t *testing.T) {
	t.Setenv("APP_NAME", "nameValue")
	t.Setenv("APP_DATABASE__DSN", "dsnValue")

	cfg := &testApp{}
	container := New(cfg).
		WithConfigPath(""). // disable the default file provider
		WithProvider(EnvProvider[*testApp]("APP_", "__"))

	if err := container.Load(context.Background()); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Name != "nameValue" {
		t.Errorf("expected Name 'nameValue', got %q", cfg.Name)
	}
	if cfg.Database.DSN != "dsnValue" {
		t.Errorf("expected DSN 'dsnValue', got %q", cfg.Database.DSN)
	}
}

func TestProviderPrecedence(t *testing.T) {
	path := writeTempConfig(t, "config.json", `{"name": "FromFile", "env": "file-env"}`)

	cfg := &testApp{}
	container := New(cfg).
		WithConfigPath("").
		WithProvider(
			DefaultValuesProvider[*testApp](map[string]any{
				"name": "FromDefaults",
				"env":  "default-env",
			}),
			FileProvider[*testApp](path),
		)

	if err := container.Load(context.Background()); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Name != "FromFile" {
		t.Errorf("file provider should win over defaults, got %q", cfg.Name)
	}
}

func TestVariableSolverThroughLoad(t *testing.T) {
	cfg := &testApp{}
	container := New(cfg).
		WithConfigPath("").
		WithProvider(DefaultValuesProvider[*testApp](map[string]any{
			"name": "App",
			"env":  "production",
			"server": map[string]any{
				"url": "https://${name}.example.com",
			},
		}))

	if err := container.Load(context.Background()); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.URL != "https://App.example.com" {
		t.Errorf("variable not resolved: %q", cfg.Server.URL)
	}
}

func TestValidationFailure(t *testing.T) {
	cfg := &testApp{}
	container := New(cfg).
		WithConfigPath("").
		WithProvider(DefaultValuesProvider[*testApp](map[string]any{
			"env": "no name set",
		}))

	err := container.Load(context.Background())
	if err == nil {
		t.Fatal("expected validation error")
	}
}

func TestValidationDisabled(t *testing.T) {
	cfg := &testApp{}
	container := New(cfg).
		WithConfigPath("").
		WithValidation(false).
		WithLogger(logger.Noop{}).
		WithProvider(DefaultValuesProvider[*testApp](map[string]any{
			"env": "no name set",
		}))

	if err := container.Load(context.Background()); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
}

func TestStrictDecodeRejectsUnknownKeys(t *testing.T) {
	cfg := &testApp{}
	container := New(cfg).
		WithConfigPath("").
		WithStrictDecode(true).
		WithProvider(DefaultValuesProvider[*testApp](map[string]any{
			"name":  "App",
			"bogus": true,
		}))

	err := container.Load(context.Background())
	if !errors.Is(err, coerce.ErrUnexpectedData) {
		t.Fatalf("expected ErrUnexpectedData, got %v", err)
	}
}

func TestWithConversionOverride(t *testing.T) {
	// casts disabled: the string port must be rejected
	cfg := &testApp{}
	container := New(cfg).
		WithConfigPath("").
		WithConversion(coerce.MustConfig()).
		WithProvider(DefaultValuesProvider[*testApp](map[string]any{
			"name": "App",
			"server": map[string]any{
				"port": "9090",
			},
		}))

	err := container.Load(context.Background())
	if !errors.Is(err, coerce.ErrWrongType) {
		t.Fatalf("expected ErrWrongType, got %v", err)
	}
}

func TestNormalizerRuns(t *testing.T) {
	cfg := &testApp{}
	container := New(cfg).
		WithConfigPath("").
		WithNormalizer(func(c *testApp) error {
			c.Env = "normalized"
			return nil
		}).
		WithProvider(DefaultValuesProvider[*testApp](map[string]any{
			"name": "App",
		}))

	if err := container.Load(context.Background()); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Env != "normalized" {
		t.Errorf("normalizer did not run, env %q", cfg.Env)
	}
}

func TestCustomValidatorFailure(t *testing.T) {
	boom := errors.New("port out of range")
	cfg := &testApp{}
	container := New(cfg).
		WithConfigPath("").
		WithValidator(func(c *testApp) error {
			if c.Server.Port == 0 {
				return boom
			}
			return nil
		}).
		WithProvider(DefaultValuesProvider[*testApp](map[string]any{
			"name": "App",
		}))

	err := container.Load(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("expected custom validator error, got %v", err)
	}
}

func TestMissingDefaultConfigIsOptional(t *testing.T) {
	cfg := &testApp{Name: "Preset"}
	container := New(cfg).WithConfigPath("does/not/exist.json")

	if err := container.Load(context.Background()); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Name != "Preset" {
		t.Errorf("base value should survive, got %q", cfg.Name)
	}
}

func TestReloadDropsRemovedKeys(t *testing.T) {
	path := writeTempConfig(t, "config.json", `{"name": "First", "env": "one"}`)

	cfg := &testApp{}
	container := New(cfg).WithConfigPath(path)

	if err := container.Load(context.Background()); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !container.K.Exists("env") {
		t.Fatal("expected env key after first load")
	}

	if err := os.WriteFile(path, []byte(`{"name": "Second"}`), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := container.Load(context.Background()); err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if container.K.Exists("env") {
		t.Error("expected env key to be gone after reload")
	}
	if cfg.Name != "Second" {
		t.Errorf("expected Name 'Second', got %q", cfg.Name)
	}
}
