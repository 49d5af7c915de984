// Package utils holds small host-environment helpers.
package utils

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
)

// linuxOpeners are tried in order on a regular Linux desktop.
var linuxOpeners = []string{"xdg-open", "sensible-browser", "x-www-browser", "gnome-open", "kde-open"}

func isWSL() bool {
	if runtime.GOOS != "linux" {
		return false
	}
	if data, err := os.ReadFile("/proc/version"); err == nil {
		return strings.Contains(strings.ToLower(string(data)), "wsl")
	}
	return false
}

// OpenBrowser launches the default browser on url. Callers treat failure
// as a UX degradation only.
func OpenBrowser(url string) error {
	switch runtime.GOOS {
	case "linux":
		if isWSL() {
			// Hand off to the Windows default browser.
			return exec.Command("cmd.exe", "/c", "start", url).Start()
		}
		for _, opener := range linuxOpeners {
			if _, err := exec.LookPath(opener); err == nil {
				return exec.Command(opener, url).Start()
			}
		}
		return fmt.Errorf("no browser opener found")
	case "darwin":
		return exec.Command("open", url).Start()
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", url).Start()
	default:
		return fmt.Errorf("unsupported platform")
	}
}
