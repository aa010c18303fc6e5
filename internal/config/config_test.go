package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Fuzzy.MinScoreAuto != 0.6 {
		t.Errorf("MinScoreAuto = %v, want 0.6", cfg.Fuzzy.MinScoreAuto)
	}
	if cfg.Fuzzy.MinScoreShow != 0.35 {
		t.Errorf("MinScoreShow = %v, want 0.35", cfg.Fuzzy.MinScoreShow)
	}
	if cfg.Fuzzy.MaxResults != 10 {
		t.Errorf("MaxResults = %d, want 10", cfg.Fuzzy.MaxResults)
	}
	if !cfg.Fuzzy.EnforceUniquePart {
		t.Error("EnforceUniquePart = false, want true")
	}
	if cfg.IdempotencyWaitMs != 2000 {
		t.Errorf("IdempotencyWaitMs = %d, want 2000", cfg.IdempotencyWaitMs)
	}
}

func TestGetEnvFloatClamps(t *testing.T) {
	t.Setenv("FUZZY_MIN_SCORE_AUTO", "1.7")
	if got := getEnvFloat("FUZZY_MIN_SCORE_AUTO", 0.6, 0, 1); got != 1 {
		t.Errorf("clamped high value = %v, want 1", got)
	}

	t.Setenv("FUZZY_MIN_SCORE_AUTO", "-0.2")
	if got := getEnvFloat("FUZZY_MIN_SCORE_AUTO", 0.6, 0, 1); got != 0 {
		t.Errorf("clamped low value = %v, want 0", got)
	}

	t.Setenv("FUZZY_MIN_SCORE_AUTO", "not-a-float")
	if got := getEnvFloat("FUZZY_MIN_SCORE_AUTO", 0.6, 0, 1); got != 0.6 {
		t.Errorf("invalid value = %v, want default 0.6", got)
	}
}

func TestGetEnvIntClamps(t *testing.T) {
	t.Setenv("FUZZY_MAX_RESULTS", "500")
	if got := getEnvInt("FUZZY_MAX_RESULTS", 10, 1, 50); got != 50 {
		t.Errorf("clamped high value = %d, want 50", got)
	}

	t.Setenv("FUZZY_MAX_RESULTS", "0")
	if got := getEnvInt("FUZZY_MAX_RESULTS", 10, 1, 50); got != 1 {
		t.Errorf("clamped low value = %d, want 1", got)
	}
}

func TestGetEnvBool(t *testing.T) {
	t.Setenv("CANON_ENFORCE_UNIQUE_PART", "false")
	if getEnvBool("CANON_ENFORCE_UNIQUE_PART", true) {
		t.Error("explicit false was ignored")
	}

	t.Setenv("CANON_ENFORCE_UNIQUE_PART", "nonsense")
	if !getEnvBool("CANON_ENFORCE_UNIQUE_PART", true) {
		t.Error("invalid value should fall back to default true")
	}
}
