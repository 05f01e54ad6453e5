package migrate

import (
	"context"
	"testing"

	"github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/config"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/logger"
)

func TestAutoRunEnabled(t *testing.T) {
	cases := []struct {
		name string
		env  string
		flag bool
		want bool
	}{
		{"dev with flag", config.AppEnvDev, true, true},
		{"dev without flag", config.AppEnvDev, false, false},
		{"prod with flag", config.AppEnvProd, true, false},
	}
	for _, tc := range cases {
		cfg := &config.Config{
			App:          config.AppConfig{Env: tc.env},
			FeatureFlags: config.FeatureFlagsConfig{AutoMigrate: tc.flag},
		}
		if got := AutoRunEnabled(cfg); got != tc.want {
			t.Fatalf("%s: expected %v got %v", tc.name, tc.want, got)
		}
	}
	if AutoRunEnabled(nil) {
		t.Fatalf("nil config must not auto-run")
	}
}

func TestMaybeRunDevSkipsOutsideDev(t *testing.T) {
	cfg := &config.Config{App: config.AppConfig{Env: config.AppEnvProd}}
	// a nil client would panic if the guard let us through
	if err := MaybeRunDev(context.Background(), cfg, logger.Nop(), nil); err != nil {
		t.Fatalf("expected no-op, got %v", err)
	}
}
