package platform

import "golang.org/x/sys/windows"

func describeWindows() (Info, error) {
	v := windows.RtlGetVersion()
	return Info{
		OSName: "windows",
		OSVersion: formatWindowsVersion(
			v.BuildNumber,
			v.MajorVersion,
			v.MinorVersion,
			servicePackString(v.ServicePackMajor, v.ServicePackMinor),
		),
	}, nil
}
