package schema

import (
	"errors"
	"testing"
	"time"

	"github.com/goliatone/go-coerce/coerce"
)

type serverConfig struct {
	Name    string        `coerce:"name"`
	Port    int           `coerce:"port" default:"8080"`
	Debug   bool          `coerce:"debug" default:"false"`
	Timeout time.Duration `coerce:"timeout" default:"0"`
}

type appConfig struct {
	Env    string         `coerce:"env"`
	Server serverConfig   `coerce:"server"`
	Labels map[string]any `coerce:"labels"`
}

func TestBuildBasic(t *testing.T) {
	runTestCases(t, []testCase{
		{
			name: "value target",
			run: func(t *testing.T) {
				cfg, err := Build[serverConfig](map[string]any{
					"name":    "alpha",
					"port":    3000,
					"debug":   true,
					"timeout": "5s",
				})
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if cfg.Name != "alpha" || cfg.Port != 3000 || !cfg.Debug {
					t.Fatalf("unexpected result: %#v", cfg)
				}
				if cfg.Timeout != 5*time.Second {
					t.Fatalf("unexpected timeout: %v", cfg.Timeout)
				}
			},
		},
		{
			name: "pointer target",
			run: func(t *testing.T) {
				cfg, err := Build[*serverConfig](map[string]any{
					"name": "beta",
					"port": 9000,
				})
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if cfg == nil || cfg.Name != "beta" || cfg.Port != 9000 {
					t.Fatalf("unexpected result: %#v", cfg)
				}
			},
		},
		{
			name: "weak scalars by default",
			run: func(t *testing.T) {
				cfg, err := Build[serverConfig](map[string]any{
					"name":  "gamma",
					"port":  "8080",
					"debug": "true",
				})
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if cfg.Port != 8080 || !cfg.Debug {
					t.Fatalf("unexpected result: %#v", cfg)
				}
			},
		},
		{
			name: "json float input",
			run: func(t *testing.T) {
				cfg, err := Build[serverConfig](map[string]any{
					"name": "delta",
					"port": float64(8081),
				})
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if cfg.Port != 8081 {
					t.Fatalf("unexpected port: %d", cfg.Port)
				}
			},
		},
	})
}

func TestBuildDefaults(t *testing.T) {
	defaults := appConfig{
		Env: "development",
		Server: serverConfig{
			Name: "api",
			Port: 3000,
		},
		Labels: map[string]any{"team": "core"},
	}

	runTestCases(t, []testCase{
		{
			name: "input wins over defaults",
			run: func(t *testing.T) {
				cfg, err := Build[appConfig](map[string]any{
					"env": "production",
					"server": map[string]any{
						"port": 443,
					},
				}, WithDefaults[appConfig](defaults))
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if cfg.Env != "production" {
					t.Fatalf("unexpected env %q", cfg.Env)
				}
				if cfg.Server.Name != "api" || cfg.Server.Port != 443 {
					t.Fatalf("nested merge failed: %#v", cfg.Server)
				}
				if cfg.Labels["team"] != "core" {
					t.Fatalf("unexpected labels: %#v", cfg.Labels)
				}
			},
		},
		{
			name: "defaults are cloned per build",
			run: func(t *testing.T) {
				first, err := Build[appConfig](map[string]any{}, WithDefaults[appConfig](defaults))
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				first.Labels["team"] = "mutated"

				second, err := Build[appConfig](map[string]any{}, WithDefaults[appConfig](defaults))
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if second.Labels["team"] != "core" {
					t.Fatalf("default value leaked mutation: %#v", second.Labels)
				}
			},
		},
		{
			name: "default func error",
			run: func(t *testing.T) {
				boom := errors.New("boom")
				_, err := Build[appConfig](map[string]any{}, WithDefaultFunc[appConfig](func() (appConfig, error) {
					return appConfig{}, boom
				}))
				if !errors.Is(err, ErrDefaults) || !errors.Is(err, boom) {
					t.Fatalf("expected ErrDefaults wrapping boom, got %v", err)
				}
				var stageErr *StageError
				if !errors.As(err, &stageErr) || stageErr.Stage != stageDefaults {
					t.Fatalf("expected defaults stage error, got %v", err)
				}
			},
		},
	})
}

func TestBuildConversionErrorsPassThrough(t *testing.T) {
	spec := coerce.NewRecord("server",
		coerce.NewField("name", coerce.String()),
		coerce.NewField("port", coerce.Int()),
	)

	runTestCases(t, []testCase{
		{
			name: "missing field keeps path",
			run: func(t *testing.T) {
				_, err := Build[serverConfig](map[string]any{"port": 80},
					WithSpec[serverConfig](spec))
				if !errors.Is(err, coerce.ErrMissingField) {
					t.Fatalf("expected ErrMissingField, got %v", err)
				}
				var convErr *coerce.ConversionError
				if !errors.As(err, &convErr) {
					t.Fatalf("expected ConversionError, got %T", err)
				}
				if convErr.Path.String() != "name" {
					t.Fatalf("unexpected path %q", convErr.Path)
				}
			},
		},
		{
			name: "strict config rejects extras",
			run: func(t *testing.T) {
				cfg := coerce.MustConfig(
					coerce.WithCast(coerce.ScalarCasts()...),
					coerce.WithStrict(true),
				)
				_, err := Build[serverConfig](map[string]any{
					"name":    "x",
					"port":    1,
					"debug":   false,
					"timeout": 0,
					"bogus":   true,
				}, WithConfig[serverConfig](cfg))
				if !errors.Is(err, coerce.ErrUnexpectedData) {
					t.Fatalf("expected ErrUnexpectedData, got %v", err)
				}
			},
		},
	})
}

func TestBuildOptionErrors(t *testing.T) {
	runTestCases(t, []testCase{
		{
			name: "empty tag name",
			run: func(t *testing.T) {
				_, err := Build[serverConfig](map[string]any{}, WithTagName[serverConfig](""))
				if !errors.Is(err, ErrOption) {
					t.Fatalf("expected ErrOption, got %v", err)
				}
			},
		},
		{
			name: "duplicate defaults",
			run: func(t *testing.T) {
				_, err := Build[serverConfig](map[string]any{},
					WithDefaults[serverConfig](serverConfig{}),
					WithDefaults[serverConfig](serverConfig{}),
				)
				if !errors.Is(err, ErrOption) {
					t.Fatalf("expected ErrOption, got %v", err)
				}
			},
		},
		{
			name: "nil spec",
			run: func(t *testing.T) {
				_, err := Build[serverConfig](map[string]any{}, WithSpec[serverConfig](nil))
				if !errors.Is(err, ErrOption) {
					t.Fatalf("expected ErrOption, got %v", err)
				}
			},
		},
	})
}

func TestBuildInputStage(t *testing.T) {
	_, err := Build[serverConfig](42)
	if !errors.Is(err, ErrInput) {
		t.Fatalf("expected ErrInput, got %v", err)
	}
	var stageErr *StageError
	if !errors.As(err, &stageErr) || stageErr.Stage != stageInput {
		t.Fatalf("expected input stage error, got %v", err)
	}
}

func TestBuildWithTagName(t *testing.T) {
	type koanfConfig struct {
		Addr string `koanf:"addr"`
	}
	cfg, err := Build[koanfConfig](map[string]any{"addr": ":8080"},
		WithTagName[koanfConfig]("koanf"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Addr != ":8080" {
		t.Fatalf("unexpected addr %q", cfg.Addr)
	}
}

func TestBuildOptionalBoolField(t *testing.T) {
	type features struct {
		Name    string              `coerce:"name"`
		Preview coerce.OptionalBool `coerce:"preview"`
	}

	cfg, err := Build[features](map[string]any{"name": "x", "preview": true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !cfg.Preview.IsSet() || !cfg.Preview.Value() {
		t.Fatalf("expected preview set true, got %s", cfg.Preview.String())
	}

	cfg, err = Build[features](map[string]any{"name": "x", "preview": ""})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Preview.IsSet() {
		t.Fatalf("expected preview unset, got %s", cfg.Preview.String())
	}
}

func TestBuildStructInput(t *testing.T) {
	cfg, err := Build[serverConfig](serverConfig{Name: "seed", Port: 7})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Name != "seed" || cfg.Port != 7 {
		t.Fatalf("unexpected result: %#v", cfg)
	}
}
