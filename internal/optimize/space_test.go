package optimize

import (
	"testing"

	"forexbt/internal/domain"
)

func testIndex() domain.DataIndex {
	return domain.BuildDataIndex([]string{
		"timestamp", "open", "high", "low", "close",
		"sma13", "ema50", "ema100", "rsi",
	})
}

func TestBuildConfigurationsCartesianProduct(t *testing.T) {
	options := map[string]domain.ConfigurationOption{
		"rsi": {
			{"rsi": domain.Reference("rsi"), "rsiOverbought": domain.Literal(70), "rsiOversold": domain.Literal(30)},
			{"rsi": domain.Reference("rsi"), "rsiOverbought": domain.Literal(80), "rsiOversold": domain.Literal(20)},
		},
		"trend": {
			{"ema50": domain.Reference("ema50"), "ema100": domain.Reference("ema100")},
			{"sma13": domain.Reference("sma13")},
			{},
		},
	}

	configurations, err := BuildConfigurations(options, testIndex())
	if err != nil {
		t.Fatalf("BuildConfigurations: %v", err)
	}
	if len(configurations) != 6 {
		t.Fatalf("built %d configurations, want 6 (2x3)", len(configurations))
	}

	// Every configuration carries exactly one rsi assignment and one trend
	// assignment, with no leakage between sibling branches.
	overbought80 := 0
	withEMA, withSMA, bare := 0, 0, 0
	for i, cfg := range configurations {
		if !cfg.RSI.Valid || !cfg.RSIOverbought.Valid || !cfg.RSIOversold.Valid {
			t.Fatalf("configuration %d missing rsi assignment: %+v", i, cfg)
		}
		if cfg.RSIOverbought.Float64 == 80 {
			overbought80++
			if cfg.RSIOversold.Float64 != 20 {
				t.Errorf("configuration %d mixes assignment-sets: overbought 80 with oversold %v",
					i, cfg.RSIOversold.Float64)
			}
		}

		switch {
		case cfg.EMA50.Valid && cfg.EMA100.Valid && !cfg.SMA13.Valid:
			withEMA++
		case cfg.SMA13.Valid && !cfg.EMA50.Valid && !cfg.EMA100.Valid:
			withSMA++
		case !cfg.SMA13.Valid && !cfg.EMA50.Valid && !cfg.EMA100.Valid:
			bare++
		default:
			t.Errorf("configuration %d leaked sibling trend fields: %+v", i, cfg)
		}
	}
	if overbought80 != 3 {
		t.Errorf("%d configurations carry overbought=80, want 3", overbought80)
	}
	if withEMA != 2 || withSMA != 2 || bare != 2 {
		t.Errorf("trend split = %d/%d/%d, want 2/2/2", withEMA, withSMA, bare)
	}
}

func TestBuildConfigurationsCoreColumns(t *testing.T) {
	configurations, err := BuildConfigurations(nil, testIndex())
	if err != nil {
		t.Fatalf("BuildConfigurations: %v", err)
	}
	if len(configurations) != 1 {
		t.Fatalf("built %d configurations with no options, want 1", len(configurations))
	}

	cfg := configurations[0]
	if cfg.Timestamp != 0 || cfg.Open != 1 || cfg.High != 2 || cfg.Low != 3 || cfg.Close != 4 {
		t.Errorf("core columns = %d/%d/%d/%d/%d, want 0/1/2/3/4",
			cfg.Timestamp, cfg.Open, cfg.High, cfg.Low, cfg.Close)
	}
	if cfg.RSI.Valid || cfg.SMA13.Valid || cfg.RSIOverbought.Valid {
		t.Errorf("optional fields should stay unset: %+v", cfg)
	}
}

func TestBuildConfigurationsUnknownReferenceFails(t *testing.T) {
	options := map[string]domain.ConfigurationOption{
		"rsi": {
			{"rsi": domain.Reference("rsi99"), "rsiOverbought": domain.Literal(70), "rsiOversold": domain.Literal(30)},
		},
	}

	if _, err := BuildConfigurations(options, testIndex()); err == nil {
		t.Fatal("BuildConfigurations accepted an unknown feature reference")
	}
}

func TestBuildConfigurationsResolvesReferencesToColumns(t *testing.T) {
	options := map[string]domain.ConfigurationOption{
		"rsi": {
			{"rsi": domain.Reference("rsi"), "rsiOverbought": domain.Literal(70), "rsiOversold": domain.Literal(30)},
		},
	}

	configurations, err := BuildConfigurations(options, testIndex())
	if err != nil {
		t.Fatalf("BuildConfigurations: %v", err)
	}
	cfg := configurations[0]
	if cfg.RSI.Int != 8 {
		t.Errorf("rsi column = %d, want 8", cfg.RSI.Int)
	}
	if cfg.RSIOverbought.Float64 != 70 || cfg.RSIOversold.Float64 != 30 {
		t.Errorf("thresholds = %v/%v, want 70/30",
			cfg.RSIOverbought.Float64, cfg.RSIOversold.Float64)
	}
}
