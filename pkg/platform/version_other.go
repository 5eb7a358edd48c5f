//go:build !windows

package platform

// Never reached: Describe only routes here when runtime.GOOS is "windows".
func describeWindows() (Info, error) {
	return Info{}, ErrUnsupported
}
