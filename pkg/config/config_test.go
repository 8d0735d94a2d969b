package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestFromViperDefaults(t *testing.T) {
	v := viper.New()
	setDefaults(v)

	cfg := fromViper(v)
	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, "/api/v1", cfg.APIPrefix)
	assert.Equal(t, 15*time.Second, cfg.Upstream.Timeout)
	assert.Equal(t, []string{"ADMIN", "ROLE_ADMIN"}, cfg.JWT.AdminMarkers)
	assert.Equal(t, 2*time.Second, cfg.Notifications.DeliveryDelay)
	assert.Equal(t, 2, cfg.Notifications.Workers)
	assert.False(t, cfg.Residents.CacheEnabled)
}

func TestFromViperOverrides(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("CAMPUS_SERVICE_URL", "http://campus.local/")
	v.Set("UPSTREAM_TIMEOUT", "not-a-duration")
	v.Set("ALLOWED_ORIGINS", " http://a.test , ,http://b.test")
	v.Set("NOTIFY_WORKERS", 0)

	cfg := fromViper(v)
	assert.Equal(t, "http://campus.local", cfg.Upstream.CampusURL)
	assert.Equal(t, 15*time.Second, cfg.Upstream.Timeout)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, 2, cfg.Notifications.Workers)
}
