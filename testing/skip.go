package coinagetesting

import (
	"os"
	"testing"
)

// RequireSoak skips the current test unless the COINAGE_SOAK environment variable is set to true.
func RequireSoak(t testing.TB) {
	t.Helper()
	if !SoakEnabled() {
		t.Skipf("skipping %s because it's a soak test; to enable it, set COINAGE_SOAK=true", t.Name())
	}
}

// SoakEnabled returns true if the COINAGE_SOAK environment variable is set to true.
func SoakEnabled() bool {
	return os.Getenv("COINAGE_SOAK") == "true"
}
