package platform

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOperatingSystemString(t *testing.T) {
	tests := []struct {
		os   OperatingSystem
		want string
	}{
		{OSNull, "(null)"},
		{OSWindows, "Windows"},
		{OSLinux, "Linux"},
		{OSMac, "Mac"},
		{OSCount, "(null)"},
		{OperatingSystem(-1), "(null)"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.os.String())
	}
}

func TestArchitectureString(t *testing.T) {
	tests := []struct {
		arch Architecture
		want string
	}{
		{ArchNull, "(null)"},
		{ArchX64, "x64"},
		{ArchX86, "x86"},
		{ArchARM, "arm"},
		{ArchARM64, "arm64"},
		{ArchCount, "(null)"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.arch.String())
	}
}

func TestResolveFromTarget(t *testing.T) {
	assert.Equal(t, OSMac, osFromGOOS("darwin"))
	assert.Equal(t, OSNull, osFromGOOS("plan9"))
	assert.Equal(t, ArchX86, archFromGOARCH("386"))
	assert.Equal(t, ArchNull, archFromGOARCH("riscv64"))
}

func TestInfo(t *testing.T) {
	info := Info()
	require.Equal(t, CurrentOS().String(), info.OS)
	require.Equal(t, CurrentArch().String(), info.Architecture)
	require.Positive(t, info.PageSize)
	require.Equal(t, runtime.NumCPU(), info.NumCPU)

	if runtime.GOOS == "linux" {
		require.Equal(t, "Linux", info.OS)
	}
}
