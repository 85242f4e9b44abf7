package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("BACKUP_DIR", "/tmp/organizer-backups")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, []string{"."}, cfg.AllowedRoots)
	assert.Equal(t, 64<<10, cfg.ClassifierExcerptBytes)
	assert.Equal(t, time.Second, cfg.WatchSettleDelay)
	assert.True(t, cfg.MetricsEnabled)
	assert.False(t, cfg.AuthEnabled())
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("ALLOWED_ROOTS", " /srv/a, ,/srv/b ")
	t.Setenv("BACKUP_DIR", "/srv/backups")
	t.Setenv("WATCH_DIR", "/srv/a/in")
	t.Setenv("WATCH_ORGANIZATION_DIR", "/srv/a/out")
	t.Setenv("WATCH_SETTLE_DELAY", "250ms")
	t.Setenv("AUTH_SECRET", "0123456789abcdef")
	t.Setenv("METRICS_ENABLED", "false")
	t.Setenv("RATE_LIMIT_RPM", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"/srv/a", "/srv/b"}, cfg.AllowedRoots)
	assert.Equal(t, 250*time.Millisecond, cfg.WatchSettleDelay)
	assert.True(t, cfg.AuthEnabled())
	assert.False(t, cfg.MetricsEnabled)
	assert.Equal(t, 120, cfg.RateLimitRPM)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			ServerPort:             "8080",
			RequestTimeout:         time.Second,
			AllowedRoots:           []string{"/srv"},
			BackupDir:              "/srv/.backups",
			ClassifierExcerptBytes: 1024,
			AuditLogFile:           "audit.log",
			DBMaxConns:             4,
			DBMinConns:             1,
			AuthTokenTTL:           time.Hour,
		}
	}
	require.NoError(t, valid().Validate())

	cases := map[string]func(*Config){
		"no roots":          func(c *Config) { c.AllowedRoots = nil },
		"watch half set":    func(c *Config) { c.WatchDir = "/srv/in" },
		"short secret":      func(c *Config) { c.AuthSecret = "abc" },
		"min above max":     func(c *Config) { c.DBMinConns = 9 },
		"negative settle":   func(c *Config) { c.WatchSettleDelay = -time.Second },
		"no audit sink":     func(c *Config) { c.AuditLogFile = "" },
		"zero excerpt size": func(c *Config) { c.ClassifierExcerptBytes = 0 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := valid()
			mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
