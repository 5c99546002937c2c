package main

import (
	"errors"
	"flag"
	"os"
	"strings"
	"testing"

	"github.com/dnldd/candleview/shared"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func validConfig() Config {
	return Config{
		Candles:       1000,
		Output:        "chart.png",
		Format:        "png",
		Width:         1280,
		Height:        720,
		CandleWidth:   8,
		Anchor:        "right",
		Frames:        60,
		StatsInterval: 5,
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(cfg *Config)
		wantErr []string
	}{
		{
			name:    "valid config, synthetic data",
			modify:  func(cfg *Config) {},
			wantErr: nil,
		},
		{
			name:    "valid config, data file",
			modify:  func(cfg *Config) { cfg.Candles = 0; cfg.DataFile = "candles.json" },
			wantErr: nil,
		},
		{
			name:    "missing data file and candle count",
			modify:  func(cfg *Config) { cfg.Candles = 0 },
			wantErr: []string{"candle count must be positive without a data file"},
		},
		{
			name:    "unknown format",
			modify:  func(cfg *Config) { cfg.Format = "gif" },
			wantErr: []string{"unknown output format"},
		},
		{
			name:    "unknown anchor",
			modify:  func(cfg *Config) { cfg.Anchor = "left" },
			wantErr: []string{"left"},
		},
		{
			name: "multiple errors",
			modify: func(cfg *Config) {
				cfg.Output = ""
				cfg.Width = 0
				cfg.CandleWidth = -1
				cfg.StatsInterval = 0
			},
			wantErr: []string{
				"output filepath cannot be an empty string",
				"chart size must be positive",
				"candle width must be positive",
				"stats interval must be positive",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.modify(&cfg)
			err := cfg.Validate()
			if len(tt.wantErr) == 0 {
				if err != nil {
					t.Errorf("expected no error, got: %v", err)
				}
				return
			}

			if err == nil {
				t.Errorf("expected error(s) %v, got none", tt.wantErr)
				return
			}
			if !errors.Is(err, shared.ErrInvalidConfig) {
				t.Errorf("expected an invalid config error, got %v", err)
			}
			for _, want := range tt.wantErr {
				if !strings.Contains(err.Error(), want) {
					t.Errorf("expected error to contain %q, got %v", want, err)
				}
			}
		})
	}
}

func TestLoadConfig(t *testing.T) {
	// Save and restore original os.Args and environment
	origArgs := os.Args
	origEnv := os.Environ()
	defer func() {
		os.Args = origArgs
		for _, kv := range origEnv {
			parts := strings.SplitN(kv, "=", 2)
			if len(parts) == 2 {
				os.Setenv(parts[0], parts[1])
			}
		}
	}()

	tests := []struct {
		name        string
		env         map[string]string
		args        []string
		expectErr   bool
		expectInErr []string
		expectCfg   Config
	}{
		{
			name:      "defaults",
			env:       map[string]string{},
			args:      []string{"cmd"},
			expectErr: false,
			expectCfg: Config{
				Candles:       49072,
				Output:        "chart.png",
				Format:        "png",
				Width:         1280,
				Height:        720,
				CandleWidth:   8,
				Anchor:        "right",
				Grid:          true,
				Frames:        240,
				StatsInterval: 5,
			},
		},
		{
			name: "from env",
			env: map[string]string{
				"datafile":    "candles.json",
				"format":      "svg",
				"output":      "chart.svg",
				"candlewidth": "2.5",
				"anchor":      "cursor",
				"grid":        "false",
			},
			args:      []string{"cmd"},
			expectErr: false,
			expectCfg: Config{
				DataFile:      "candles.json",
				Candles:       49072,
				Output:        "chart.svg",
				Format:        "svg",
				Width:         1280,
				Height:        720,
				CandleWidth:   2.5,
				Anchor:        "cursor",
				Grid:          false,
				Frames:        240,
				StatsInterval: 5,
			},
		},
		{
			name:      "flags override env",
			env:       map[string]string{"width": "800"},
			args:      []string{"cmd", "-width=640", "-height=360", "-visible=120", "-realtime", "-frames=10"},
			expectErr: false,
			expectCfg: Config{
				Candles:       49072,
				Output:        "chart.png",
				Format:        "png",
				Width:         640,
				Height:        360,
				CandleWidth:   8,
				Visible:       120,
				Anchor:        "right",
				Grid:          true,
				Frames:        10,
				Realtime:      true,
				StatsInterval: 5,
			},
		},
		{
			name:        "invalid format and size",
			env:         map[string]string{"format": "bmp"},
			args:        []string{"cmd", "-height=0"},
			expectErr:   true,
			expectInErr: []string{"unknown output format", "chart size must be positive"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Reset flags for each test
			flag.CommandLine = flag.NewFlagSet(os.Args[0], flag.ExitOnError)

			// Set environment variables
			for k, v := range tt.env {
				os.Setenv(k, v)
			}

			// Set command-line arguments
			os.Args = tt.args

			var cfg Config
			err := loadConfig(&cfg, "") // no .env file in the package directory

			if tt.expectErr {
				if err == nil {
					t.Fatalf("expected error, got nil")
				}
				for _, want := range tt.expectInErr {
					if !strings.Contains(err.Error(), want) {
						t.Errorf("expected error to contain %q, got %v", want, err)
					}
				}
			} else {
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}

				ignore := cmpopts.IgnoreUnexported(Config{})
				if !cmp.Equal(cfg, tt.expectCfg, ignore) {
					t.Errorf("mismatching config: %v", cmp.Diff(cfg, tt.expectCfg, ignore))
				}
			}

			// Clean up env
			for k := range tt.env {
				os.Unsetenv(k)
			}
		})
	}
}

func TestRegisterFlag(t *testing.T) {
	flag.CommandLine = flag.NewFlagSet(os.Args[0], flag.ExitOnError)

	var (
		name   string
		count  int
		ratio  float64
		toggle bool
		list   []string
	)

	tests := []struct {
		name    string
		flag    string
		value   interface{}
		wantErr string
	}{
		{name: "string", flag: "rf-name", value: &name},
		{name: "int", flag: "rf-count", value: &count},
		{name: "float", flag: "rf-ratio", value: &ratio},
		{name: "bool", flag: "rf-toggle", value: &toggle},
		{name: "slice", flag: "rf-list", value: &list, wantErr: "unsupported type"},
		{name: "not a pointer", flag: "rf-plain", value: count, wantErr: "non-nil pointer"},
		{name: "reregistration", flag: "rf-name", value: &list},
	}

	var cfg Config
	for _, test := range tests {
		err := cfg.registerFlag(test.flag, test.value, "", "usage")
		switch {
		case test.wantErr == "" && err != nil:
			t.Errorf("%s: expected no error, got %v", test.name, err)
		case test.wantErr != "" && (err == nil || !strings.Contains(err.Error(), test.wantErr)):
			t.Errorf("%s: expected error containing %q, got %v", test.name, test.wantErr, err)
		}
	}
}
