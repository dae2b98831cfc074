package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("STORE_DRIVER", "memory")

	c, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8080, c.Port)
	assert.Equal(t, "memory", c.StoreDriver)
	assert.Equal(t, "local", c.StorageDriver)
	assert.Equal(t, 72*time.Hour, c.JWTDuration)
	assert.Equal(t, []string{"*"}, c.CORSOrigins)
	assert.False(t, c.IsProduction())
}

func TestLoad_Environment(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("PORT", "9000")
	t.Setenv("JWT_DURATION", "2h")
	t.Setenv("PROFANITY_WORDS", "darn,heck")
	t.Setenv("REPORT_DAILY_LIMIT", "3")

	c, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9000, c.Port)
	assert.Equal(t, 2*time.Hour, c.JWTDuration)
	assert.Equal(t, []string{"darn", "heck"}, c.ProfanityWords)
	assert.Equal(t, 3, c.ReportLimit)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	base := Config{Port: 8080, StoreDriver: "mongo", StorageDriver: "local"}
	assert.NoError(t, base.Validate())

	prod := base
	prod.GoEnv = "production"
	assert.Error(t, prod.Validate())
	prod.JWTSecret = "secret"
	assert.NoError(t, prod.Validate())

	s3 := base
	s3.StorageDriver = "s3"
	assert.Error(t, s3.Validate())

	store := base
	store.StoreDriver = "postgres"
	assert.Error(t, store.Validate())
}
