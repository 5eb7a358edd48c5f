// Package platform resolves host operating system information and provides
// the detached-process spawn capability used by telemetry delivery.
//
// Only three OS families are supported: Windows, macOS and Linux. Data is
// not collected for anything else, so every operation fails with
// ErrUnsupported there.
package platform

import (
	"fmt"
	"runtime"

	"github.com/shirou/gopsutil/v4/host"
)

// ErrUnsupported is returned when the host OS is not one of the families
// this library collects data for.
var ErrUnsupported = fmt.Errorf("unsupported platform %q", runtime.GOOS)

// Info describes the host operating system.
type Info struct {
	OSName    string `json:"os_name"`
	OSVersion string `json:"os_version"`
}

// Describe returns the host OS family name and version.
//
// Versions are reported as the Windows build numbers, the short macOS
// release, or the Linux distribution version.
func Describe() (Info, error) {
	switch runtime.GOOS {
	case "windows":
		return describeWindows()
	case "darwin":
		return describeHost("mac")
	case "linux":
		return describeHost("linux")
	default:
		return Info{}, ErrUnsupported
	}
}

func describeHost(osName string) (Info, error) {
	info, err := host.Info()
	if err != nil {
		return Info{}, fmt.Errorf("describe %s host: %w", osName, err)
	}
	return Info{OSName: osName, OSVersion: info.PlatformVersion}, nil
}

// formatWindowsVersion renders "<build>.<major>.<minor>-<service_pack>".
func formatWindowsVersion(build, major, minor uint32, servicePack string) string {
	return fmt.Sprintf("%d.%d.%d-%s", build, major, minor, servicePack)
}

// servicePackString renders the service pack numbers, empty when none is
// installed.
func servicePackString(major, minor uint16) string {
	switch {
	case major == 0 && minor == 0:
		return ""
	case minor == 0:
		return fmt.Sprintf("%d", major)
	default:
		return fmt.Sprintf("%d.%d", major, minor)
	}
}
