package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadAppliesDefaultsAndValidates(t *testing.T) {
	os.Clearenv()
	t.Setenv("VOD2TUBE_SUPABASE_URL", "https://example.supabase.co")
	t.Setenv("VOD2TUBE_SUPABASE_KEY", "service-key")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, cfg.PollInterval)
	assert.Equal(t, 2*time.Minute, cfg.LeaseRefreshInterval)
	assert.Equal(t, 3, cfg.MaxRetryableFailures)
	assert.Equal(t, "yt-dlp", cfg.YtDlpPath)
}

func TestLoadRejectsMissingRequiredFields(t *testing.T) {
	os.Clearenv()
	_, err := Load("")
	require.Error(t, err)
}
