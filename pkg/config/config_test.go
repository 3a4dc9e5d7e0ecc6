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
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "/api/v1", cfg.APIPrefix)
	assert.Equal(t, "speaker_match", cfg.Database.Name)
	assert.True(t, cfg.Database.AutoMigrate)
	assert.Equal(t, 24*time.Hour, cfg.JWT.Expiration)
	assert.Equal(t, 5*time.Minute, cfg.Cache.TTL)
	assert.False(t, cfg.Events.Enabled)
	assert.Equal(t, 1, cfg.Events.Workers)
	assert.False(t, cfg.Requests.StrictSpeakerTransitions)
	assert.Empty(t, cfg.Admin.Email)
	assert.Equal(t, "Administrator", cfg.Admin.FullName)
}

func TestFromViperOverrides(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("ALLOWED_ORIGINS", " http://a.test , ,http://b.test")
	v.Set("CACHE_TTL", "not-a-duration")
	v.Set("EVENTS_WORKERS", 0)
	v.Set("REQUESTS_STRICT_SPEAKER_TRANSITIONS", true)

	cfg := fromViper(v)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, 5*time.Minute, cfg.Cache.TTL)
	assert.Equal(t, 1, cfg.Events.Workers)
	assert.True(t, cfg.Requests.StrictSpeakerTransitions)
}

func TestFromViperAdminBootstrap(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("ADMIN_EMAIL", "  root@example.com ")
	v.Set("ADMIN_PASSWORD", "s3cret-pass")
	v.Set("ADMIN_NAME", "Site Owner")

	cfg := fromViper(v)
	assert.Equal(t, "root@example.com", cfg.Admin.Email)
	assert.Equal(t, "s3cret-pass", cfg.Admin.Password)
	assert.Equal(t, "Site Owner", cfg.Admin.FullName)
}
