package config

import (
	"testing"
	"time"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("HTTP_ADDR", ":0")
	t.Setenv("MQTT_BROKER_URL", "mqtt://localhost:1883")
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)
	t.Chdir(t.TempDir()) // no .env

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.KafkaTopic != "silowatch-readings" {
		t.Errorf("KafkaTopic = %q, want silowatch-readings", cfg.KafkaTopic)
	}
	if got := cfg.HistoryRetentionDuration(); got != 5*time.Hour {
		t.Errorf("HistoryRetentionDuration = %v, want 5h", got)
	}
	if got := cfg.LivenessPeriodDuration(); got != time.Minute {
		t.Errorf("LivenessPeriodDuration = %v, want 1m", got)
	}
	if got := cfg.LivenessThresholdDuration(); got != 2*time.Minute {
		t.Errorf("LivenessThresholdDuration = %v, want 2m", got)
	}
}

func TestLoad_ThresholdBelowPeriodRejected(t *testing.T) {
	setRequiredEnv(t)
	t.Chdir(t.TempDir())
	t.Setenv("LIVENESS_PERIOD", "1m")
	t.Setenv("LIVENESS_THRESHOLD", "30s")

	if _, err := Load(); err == nil {
		t.Fatal("Load should reject a liveness threshold below the sweep period")
	}
}

func TestLoad_BcryptCostValidated(t *testing.T) {
	setRequiredEnv(t)
	t.Chdir(t.TempDir())
	t.Setenv("BCRYPT_COST", "99")

	if _, err := Load(); err == nil {
		t.Fatal("Load should reject BCRYPT_COST=99")
	}
}

func TestKafkaBrokersList(t *testing.T) {
	cfg := &Config{KafkaBrokers: "localhost:9092, broker2:9092 ,"}
	got := cfg.KafkaBrokersList()
	if len(got) != 2 || got[0] != "localhost:9092" || got[1] != "broker2:9092" {
		t.Errorf("KafkaBrokersList = %v", got)
	}

	var nilCfg *Config
	if nilCfg.KafkaBrokersList() != nil {
		t.Error("nil config should return nil broker list")
	}
}
