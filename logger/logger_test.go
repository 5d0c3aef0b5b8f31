package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	gormlogger "gorm.io/gorm/logger"
)

func TestLogLevel_zapLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, DebugLevel.zapLevel())
	assert.Equal(t, zapcore.WarnLevel, WarnLevel.zapLevel())
	assert.Equal(t, zapcore.ErrorLevel, ErrorLevel.zapLevel())
	assert.Equal(t, zapcore.InfoLevel, LogLevel("verbose").zapLevel())
}

func TestBuild_WritesRotatedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "app.log")

	l := build(Config{Level: InfoLevel, OutputPath: path, MaxSize: 1})
	l.Info("hello", String("k", "v"))
	_ = l.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"hello"`)
	assert.Contains(t, string(data), `"k":"v"`)
}

func TestHelpersAreSafeBeforeInit(t *testing.T) {
	assert.NotPanics(t, func() {
		Info("not initialised")
		Error("still fine", ErrorField(os.ErrNotExist))
	})
}

func TestGormLogger_LogMode(t *testing.T) {
	l := NewGormLogger()
	assert.Equal(t, gormlogger.Warn, l.LogLevel)

	silent := l.LogMode(gormlogger.Silent).(*GormLogger)
	assert.Equal(t, gormlogger.Silent, silent.LogLevel)
	assert.Equal(t, gormlogger.Warn, l.LogLevel)
}
