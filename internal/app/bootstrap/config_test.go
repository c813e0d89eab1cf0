package bootstrap

import (
	"reflect"
	"strings"
	"testing"

	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

func validConfig() AppConfig {
	return AppConfig{
		StoreBackend:          BackendMongo,
		MongoURI:              "mongodb://localhost:27017",
		MongoDatabase:         "divvy",
		RateLimitRPS:          20,
		RateLimitBurst:        40,
		DeleteBatchSize:       50,
		MaxGeneratedInstances: 1000,
	}
}

func TestValidateConfig(t *testing.T) {
	core := &config.CoreConfig{Env: "prod"}

	tests := []struct {
		name    string
		mutate  func(*AppConfig)
		wantErr string
	}{
		{"valid mongo", func(c *AppConfig) {}, ""},
		{"valid memory", func(c *AppConfig) { c.StoreBackend = BackendMemory }, ""},
		{"valid firestore", func(c *AppConfig) {
			c.StoreBackend = BackendFirestore
			c.FirestoreProjectID = "divvy-prod"
		}, ""},
		{"empty mongo uri", func(c *AppConfig) { c.MongoURI = "" }, "MongoDB URI"},
		{"missing database", func(c *AppConfig) { c.MongoDatabase = "" }, "mongo_database"},
		{"firestore without project", func(c *AppConfig) { c.StoreBackend = BackendFirestore }, "firestore_project_id"},
		{"unknown backend", func(c *AppConfig) { c.StoreBackend = "redis" }, "unknown store_backend"},
		{"zero batch", func(c *AppConfig) { c.DeleteBatchSize = 0 }, "delete_batch_size"},
		{"zero max instances", func(c *AppConfig) { c.MaxGeneratedInstances = 0 }, "max_generated_instances"},
		{"negative rate", func(c *AppConfig) { c.RateLimitRPS = -1 }, "rate limits"},
		{"trusted proxies", func(c *AppConfig) { c.TrustedProxies = []string{"10.0.0.0/8", "192.0.2.1"} }, ""},
		{"bad trusted proxy", func(c *AppConfig) { c.TrustedProxies = []string{"proxy.internal"} }, "trusted proxy"},
		{"bad mongo scheme", func(c *AppConfig) { c.MongoURI = "http://localhost:27017" }, "MongoDB URI"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := ValidateConfig(core, cfg, zap.NewNop())
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("got %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestSplitList(t *testing.T) {
	got := splitList(" https://a.example , ,https://b.example,")
	want := []string{"https://a.example", "https://b.example"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
	if splitList("") != nil {
		t.Error("empty input should give nil")
	}
}
