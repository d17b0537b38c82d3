package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsSelectLocalBackend(t *testing.T) {
	t.Setenv("MONGO_API_KEY", "")
	t.Setenv("MONGO_APP_ID", "")
	t.Setenv("MONGO_CLUSTER_NAME", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.False(t, cfg.Mongo.Configured())
	assert.Equal(t, "pocket_university", cfg.Mongo.Database)
	assert.Equal(t, 5*time.Second, cfg.Feedback.TTL)
	assert.Equal(t, time.Duration(0), cfg.Mongo.RequestTimeout)
}

func TestMongoConfiguredRequiresAllCredentials(t *testing.T) {
	cfg := MongoConfig{APIKey: "key", AppID: "app"}
	assert.False(t, cfg.Configured())

	cfg.ClusterName = "Cluster0"
	assert.True(t, cfg.Configured())
}

func TestLoadReadsMongoFromEnv(t *testing.T) {
	t.Setenv("MONGO_API_KEY", "key")
	t.Setenv("MONGO_APP_ID", "application-0-abcde")
	t.Setenv("MONGO_CLUSTER_NAME", "Cluster0")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.Mongo.Configured())
	assert.Equal(t, "https://data.mongodb-api.com/app/application-0-abcde/endpoint/data/v1/action", cfg.Mongo.ActionURL())
}

func TestActionURLHonoursOverride(t *testing.T) {
	cfg := MongoConfig{AppID: "app", BaseURL: "https://eu-west-1.aws.data.mongodb-api.com/app/app/endpoint/data/v1/action/"}
	assert.Equal(t, "https://eu-west-1.aws.data.mongodb-api.com/app/app/endpoint/data/v1/action", cfg.ActionURL())
}

func TestSplitAndTrim(t *testing.T) {
	assert.Nil(t, splitAndTrim(""))
	assert.Equal(t, []string{"a", "b"}, splitAndTrim(" a, ,b "))
}
