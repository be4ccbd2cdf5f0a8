// Package platform resolves the operating system and instruction-set
// architecture of the running binary into stable enumerations.
//
// The string forms ("Windows", "Linux", "Mac", "x64", "arm64", ...) are the
// only printable identities the base layer defines; unknown targets map to
// the null value and print as "(null)".
package platform

import (
	"runtime"

	"github.com/joshuapare/basekit/internal/vmem"
)

// OperatingSystem identifies the host operating system.
type OperatingSystem int

const (
	OSNull OperatingSystem = iota
	OSWindows
	OSLinux
	OSMac

	OSCount
)

// Architecture identifies the host instruction-set architecture.
type Architecture int

const (
	ArchNull Architecture = iota
	ArchX64
	ArchX86
	ArchARM
	ArchARM64

	ArchCount
)

const nullName = "(null)"

// CurrentOS returns the operating system the binary was built for.
func CurrentOS() OperatingSystem {
	return osFromGOOS(runtime.GOOS)
}

// CurrentArch returns the architecture the binary was built for.
func CurrentArch() Architecture {
	return archFromGOARCH(runtime.GOARCH)
}

func osFromGOOS(goos string) OperatingSystem {
	switch goos {
	case "windows":
		return OSWindows
	case "linux":
		return OSLinux
	case "darwin":
		return OSMac
	default:
		return OSNull
	}
}

func archFromGOARCH(goarch string) Architecture {
	switch goarch {
	case "amd64":
		return ArchX64
	case "386":
		return ArchX86
	case "arm":
		return ArchARM
	case "arm64":
		return ArchARM64
	default:
		return ArchNull
	}
}

func (o OperatingSystem) String() string {
	switch o {
	case OSWindows:
		return "Windows"
	case OSLinux:
		return "Linux"
	case OSMac:
		return "Mac"
	default:
		return nullName
	}
}

func (a Architecture) String() string {
	switch a {
	case ArchX64:
		return "x64"
	case ArchX86:
		return "x86"
	case ArchARM:
		return "arm"
	case ArchARM64:
		return "arm64"
	default:
		return nullName
	}
}

// Summary is a snapshot of the host capabilities.
type Summary struct {
	OS           string `json:"os"`
	Architecture string `json:"architecture"`
	PageSize     int    `json:"page_size"`
	NumCPU       int    `json:"num_cpu"`
	GoVersion    string `json:"go_version"`
}

// Info collects a Summary for the running process.
func Info() Summary {
	return Summary{
		OS:           CurrentOS().String(),
		Architecture: CurrentArch().String(),
		PageSize:     vmem.PageSize(),
		NumCPU:       runtime.NumCPU(),
		GoVersion:    runtime.Version(),
	}
}
