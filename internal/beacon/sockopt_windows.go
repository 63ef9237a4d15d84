//go:build windows

package beacon

import "golang.org/x/sys/windows"

func setReuse(fd uintptr) error {
	// Windows has no SO_REUSEPORT; SO_REUSEADDR covers both roles.
	return windows.SetsockoptInt(windows.Handle(fd), windows.SOL_SOCKET, windows.SO_REUSEADDR, 1)
}

func setBroadcast(fd uintptr) error {
	return windows.SetsockoptInt(windows.Handle(fd), windows.SOL_SOCKET, windows.SO_BROADCAST, 1)
}
