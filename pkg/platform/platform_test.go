package platform

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDescribeCurrentHost(t *testing.T) {
	t.Parallel()

	info, err := Describe()
	if errors.Is(err, ErrUnsupported) {
		t.Skip("host OS is not a supported telemetry platform")
	}
	require.NoError(t, err)
	require.Contains(t, []string{"windows", "mac", "linux"}, info.OSName)
	require.NotEmpty(t, info.OSVersion)
}

func TestFormatWindowsVersion(t *testing.T) {
	t.Parallel()

	require.Equal(t, "19045.10.0-", formatWindowsVersion(19045, 10, 0, ""))
	require.Equal(t, "7601.6.1-1", formatWindowsVersion(7601, 6, 1, "1"))
}

func TestServicePackString(t *testing.T) {
	t.Parallel()

	require.Equal(t, "", servicePackString(0, 0))
	require.Equal(t, "3", servicePackString(3, 0))
	require.Equal(t, "2.1", servicePackString(2, 1))
}
