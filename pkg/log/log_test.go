package log

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hal177/quill/internal/constants"
)

func TestNewWithDefaults(t *testing.T) {
	tests := []struct {
		name        string
		environment string
		service     string
	}{
		{name: "non-production environment", environment: constants.NonProductionEnvironment, service: "test-service"},
		{name: "production environment", environment: "production", service: "test-service"},
		{name: "empty environment treated as production", environment: "", service: "test-service"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := NewWithDefaults(context.Background(), tt.environment, tt.service)
			require.NoError(t, err)
			require.NotNil(t, logger)

			defer logger.Stop()

			require.True(t, logger.IsRunning())

			producer, err := logger.NewProducer()
			require.NoError(t, err)

			defer producer.Close()

			require.NoError(t, producer.Log([]byte("startup")))
			require.NoError(t, producer.Flush())
		})
	}
}
