package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAppliesDefaults(t *testing.T) {
	c, err := Parse([]byte("environment: test\n"))
	require.NoError(t, err)

	assert.Equal(t, "BTCUSDT", c.Feed.Symbol)
	assert.Equal(t, 5, c.Feed.MaxRetries)
	assert.Equal(t, time.Second, c.Feed.RetryDelay)
	assert.Equal(t, 10, c.Engine.OFIWindow)
	assert.InDelta(t, 0.1, c.Engine.Alpha, 1e-12)
	assert.InDelta(t, 1e-5, c.Regime.MuEps, 1e-18)
	assert.Equal(t, "memory", c.Snapshot.Backend)
	assert.Equal(t, 3000, c.DepthCapacity())
	assert.Equal(t, 15000, c.TradeCapacity())
}

func TestParseOverridesDefaults(t *testing.T) {
	raw := `
environment: prod
feed:
  symbol: ETHUSDT
  max_retries: 2
  retry_delay: 250ms
buffer:
  minutes: 1
  trades_per_sec: 10
regime:
  sigma_high: 0.2
`
	c, err := Parse([]byte(raw))
	require.NoError(t, err)
	assert.Equal(t, "ETHUSDT", c.Feed.Symbol)
	assert.Equal(t, 2, c.Feed.MaxRetries)
	assert.Equal(t, 250*time.Millisecond, c.Feed.RetryDelay)
	assert.Equal(t, 600, c.DepthCapacity())
	assert.Equal(t, 600, c.TradeCapacity())
	assert.InDelta(t, 0.2, c.Regime.SigmaHigh, 1e-12)
}

func TestValidateRejectsBadConfig(t *testing.T) {
	cases := map[string]string{
		"bad snapshot backend": "snapshot:\n  backend: etcd\n",
		"zero retries":         "feed:\n  max_retries: 0\n",
		"inverted sigma":       "regime:\n  sigma_low: 0.5\n  sigma_med: 0.1\n",
		"telegram no token":    "telegram:\n  enabled: true\n",
		"kafka no brokers":     "kafka:\n  enabled: true\n",
		"webhook no url":       "webhook:\n  enabled: true\n",
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(raw))
			assert.Error(t, err)
		})
	}
}

func TestLoadWithEnvOverrides(t *testing.T) {
	path := t.TempDir() + "/config.yaml"
	require.NoError(t, writeFile(path, "environment: test\n"))

	t.Setenv("SYMBOL", "SOLUSDT")
	t.Setenv("FEED_MAX_RETRIES", "9")
	t.Setenv("KAFKA_BROKERS", "a:9092,b:9092")

	c, err := LoadWithEnv(path)
	require.NoError(t, err)
	assert.Equal(t, "SOLUSDT", c.Feed.Symbol)
	assert.Equal(t, 9, c.Feed.MaxRetries)
	assert.Equal(t, []string{"a:9092", "b:9092"}, c.Kafka.Brokers)
}

func TestExampleConfigLoads(t *testing.T) {
	c, err := Load("../../config/config.yaml")
	require.NoError(t, err)
	assert.Equal(t, Default().Feed, c.Feed)
	assert.Equal(t, Default().Engine, c.Engine)
	assert.Equal(t, []string{"localhost:9092"}, c.Kafka.Brokers)
}
