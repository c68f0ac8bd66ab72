package app

import (
	"os"
	"testing"

	"event_messaging_service/pkg/logger"
)

func TestMain(m *testing.M) {
	logger.SetNewNop()
	os.Exit(m.Run())
}
