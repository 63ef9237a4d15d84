// Package sysinfo collects host metadata for the node announcement. Only
// small fields are gathered since the whole announcement has to fit in a
// single beacon payload.
package sysinfo

import (
	"os"
	"runtime"
	"strings"

	"github.com/shirou/gopsutil/v3/host"
)

// SystemInfo holds the host metadata advertised by a node.
type SystemInfo struct {
	Hostname string
	OSName   string
	Kernel   string
	Arch     string
}

// Collect gathers local host information.
func Collect() *SystemInfo {
	hostname, _ := os.Hostname()
	osName, kernel := getOSInfo()

	return &SystemInfo{
		Hostname: hostname,
		OSName:   osName,
		Kernel:   kernel,
		Arch:     runtime.GOARCH,
	}
}

// getOSInfo retrieves OS name and kernel version.
func getOSInfo() (string, string) {
	var osName, kernel string

	hostInfo, err := host.Info()
	if err == nil {
		osName = hostInfo.Platform
		if hostInfo.PlatformVersion != "" {
			osName += " " + hostInfo.PlatformVersion
		}
		kernel = hostInfo.KernelVersion
	} else {
		osName = runtime.GOOS
	}

	if runtime.GOOS == "linux" {
		if prettyName := readOSReleasePrettyName(); prettyName != "" {
			osName = prettyName
		}
	}

	return osName, kernel
}

// readOSReleasePrettyName parses /etc/os-release for the PRETTY_NAME field.
func readOSReleasePrettyName() string {
	data, err := os.ReadFile("/etc/os-release")
	if err != nil {
		return ""
	}
	for _, line := range strings.Split(string(data), "\n") {
		if strings.HasPrefix(line, "PRETTY_NAME=") {
			val := strings.TrimPrefix(line, "PRETTY_NAME=")
			val = strings.Trim(val, "\"")
			return val
		}
	}
	return ""
}
