package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestInit(t *testing.T) {
	t.Cleanup(func() { Logger = zap.NewNop() })

	tests := []struct {
		name          string
		level         string
		expectedError bool
		enabled       zapcore.Level
	}{
		{name: "debug level", level: "debug", enabled: zapcore.DebugLevel},
		{name: "info level", level: "info", enabled: zapcore.InfoLevel},
		{name: "upper case level", level: "WARN", enabled: zapcore.WarnLevel},
		{name: "invalid level", level: "verbose", expectedError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Init(tt.level)
			if tt.expectedError {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.True(t, Logger.Core().Enabled(tt.enabled))
			assert.False(t, Logger.Core().Enabled(tt.enabled-1))
		})
	}
}
