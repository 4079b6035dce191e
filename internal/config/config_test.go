package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", " k1:9092, ,k2:9092 ")
	t.Setenv("SAFEPAY_TIMEOUT", "bogus")
	t.Setenv("SETTLEMENT_WORKERS", "-3")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 10*time.Second, cfg.Safepay.Timeout)
	assert.Equal(t, 4, cfg.SettleWorker)
	assert.Equal(t, "1000", cfg.DeliveryFee.String())
}

func TestLoad_BadDeliveryFee(t *testing.T) {
	t.Setenv("DELIVERY_FEE", "ten")

	_, err := Load()
	assert.Error(t, err)
}

func TestValidateAPI(t *testing.T) {
	t.Setenv("SAFEPAY_API_KEY", "")
	t.Setenv("SAFEPAY_SECRET_KEY", "")
	t.Setenv("SAFEPAY_WEBHOOK_SECRET", "")
	t.Setenv("ADMIN_JWT_SECRET", "")

	cfg, err := Load()
	require.NoError(t, err)

	err = cfg.ValidateAPI()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SAFEPAY_API_KEY")
	assert.Contains(t, err.Error(), "ADMIN_JWT_SECRET")

	cfg.Safepay.APIKey = "k"
	cfg.Safepay.SecretKey = "s"
	cfg.Safepay.WebhookSecret = "w"
	cfg.AdminSecret = "a"
	assert.NoError(t, cfg.ValidateAPI())
}
