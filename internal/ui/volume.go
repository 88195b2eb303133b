package ui

import (
	"strings"

	"github.com/glebovdev/bcradio-cli/internal/config"
)

// volumeBar renders a volume key as a row of filled and empty cells.
func volumeBar(volume int) string {
	filled := config.ClampVolume(volume)
	return strings.Repeat("▮", filled) + strings.Repeat("▯", config.MaxVolume-filled)
}
