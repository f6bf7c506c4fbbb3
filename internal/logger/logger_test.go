package logger

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestLogger() (*logrus.Logger, *bytes.Buffer) {
	log := logrus.New()
	buf := &bytes.Buffer{}
	log.SetOutput(buf)
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetLevel(logrus.DebugLevel)
	return log, buf
}

func parseLogOutput(buf *bytes.Buffer) map[string]interface{} {
	var logEntry map[string]interface{}
	err := json.Unmarshal(buf.Bytes(), &logEntry)
	if err != nil {
		return nil
	}
	return logEntry
}

func TestNewLoggerLevels(t *testing.T) {
	tests := []struct {
		level    string
		expected logrus.Level
	}{
		{"debug", logrus.DebugLevel},
		{"info", logrus.InfoLevel},
		{"warn", logrus.WarnLevel},
		{"error", logrus.ErrorLevel},
		{"not-a-level", logrus.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			log := NewLogger(tt.level)
			assert.Equal(t, tt.expected, log.GetLevel())
		})
	}
}

func TestAuditLoggerWagerSettlement(t *testing.T) {
	log, buf := setupTestLogger()
	audit := NewAuditLogger(log)

	audit.LogWagerSettlement(
		"wager_001",
		"ticket_001",
		"outcome_001",
		"PENDING",
		"WON",
		"21.00",
		time.Date(2026, 3, 14, 21, 52, 0, 0, time.UTC),
	)

	entry := parseLogOutput(buf)
	require.NotNil(t, entry)
	assert.Equal(t, "audit", entry["component"])
	assert.Equal(t, "wager_001", entry["wager_id"])
	assert.Equal(t, "PENDING", entry["old_status"])
	assert.Equal(t, "WON", entry["new_status"])
	assert.Equal(t, "21.00", entry["payout"])
}

func TestAuditLoggerWalletMutation(t *testing.T) {
	log, buf := setupTestLogger()
	audit := NewAuditLogger(log)

	audit.LogWalletMutation("wallet_001", "user_001", "CREDIT", "21.00", "121.00", "ticket:ticket_001")

	entry := parseLogOutput(buf)
	require.NotNil(t, entry)
	assert.Equal(t, "CREDIT", entry["operation"])
	assert.Equal(t, "ticket:ticket_001", entry["reference"])
}
