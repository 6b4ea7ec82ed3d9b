package browser

import (
	"os/exec"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsAvailable_MatchesInstalledOpeners(t *testing.T) {
	var candidates []string
	switch runtime.GOOS {
	case "darwin":
		candidates = []string{"open"}
	case "windows":
		candidates = []string{"rundll32"}
	case "linux":
		candidates = []string{"xdg-open", "x-www-browser", "www-browser", "firefox", "chromium", "google-chrome"}
	default:
		assert.False(t, IsAvailable())
		return
	}

	expected := false
	for _, name := range candidates {
		if _, err := exec.LookPath(name); err == nil {
			expected = true
			break
		}
	}
	assert.Equal(t, expected, IsAvailable())
}
