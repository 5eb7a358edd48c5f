package useragent

import (
	"fmt"
	"runtime"

	"github.com/iterative/telemetry-go/pkg/version"
)

var Header = fmt.Sprintf("iterative-telemetry/%s (%s; %s)", version.Version, runtime.GOOS, runtime.GOARCH)
