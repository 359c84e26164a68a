package utils

import (
	"io"

	"github.com/MrSnakeDoc/smartmark/internal/logger"
)

// Close closes c and ignores any error.
// Use for best-effort cleanup in defer where error handling is not critical.
func Close(c io.Closer) {
	_ = c.Close()
}

// CloseLogged closes c and logs the outcome under component.
func CloseLogged(log logger.Logger, component string, c io.Closer) {
	if err := c.Close(); err != nil {
		log.Warn("failed to close", logger.String("component", component), logger.Error(err))
		return
	}
	log.Info("✅ closed cleanly", logger.String("component", component))
}
