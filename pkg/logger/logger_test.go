package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestFromZap_WritesKeyValues(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	log := FromZap(zap.New(core))

	log.With("user_id", "u-1").Info("lead created", "lead_id", "l-1")
	log.Warn("slow dispatch", "channel", "sms")
	log.Debug("noise")
	log.Error("send failed", "error", "boom")

	entries := logs.All()
	assert.Len(t, entries, 4)
	assert.Equal(t, "lead created", entries[0].Message)
	fields := entries[0].ContextMap()
	assert.Equal(t, "u-1", fields["user_id"])
	assert.Equal(t, "l-1", fields["lead_id"])
	assert.Equal(t, "sms", entries[1].ContextMap()["channel"])
}

func TestNew_LevelsDoNotPanic(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error", "bogus"} {
		assert.NotPanics(t, func() {
			l := New(level)
			l.Info("hello", "level", level)
		})
	}
}

func TestNop(t *testing.T) {
	assert.NotPanics(t, func() {
		Nop().With("k", "v").Error("discarded")
	})
}
