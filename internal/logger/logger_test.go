package logger_test

import (
	"testing"

	"github.com/DMarby/additive-mask/internal/logger"
	"go.uber.org/zap"
)

func TestLevels(t *testing.T) {
	tests := []struct {
		Name string
		Log  *logger.Logger
	}{
		{"json", logger.New(zap.WarnLevel)},
		{"console", logger.NewConsole(zap.WarnLevel)},
	}

	for _, test := range tests {
		if test.Log.Desugar().Core().Enabled(zap.InfoLevel) {
			t.Errorf("%s: info enabled at warn level", test.Name)
		}

		if !test.Log.Desugar().Core().Enabled(zap.ErrorLevel) {
			t.Errorf("%s: error disabled at warn level", test.Name)
		}
	}
}

func TestHTTPErrorLog(t *testing.T) {
	log := logger.New(zap.FatalLevel)
	defer log.Sync()

	errorLog := logger.NewHTTPErrorLog(log)
	errorLog.Print("http: TLS handshake error")
}
