package beacon

// bindStrategy selects the local bind target for broadcast sockets. OS
// families disagree here: Linux must bind the subnet broadcast address itself
// to receive broadcasts sent by other processes on the same host, while
// Windows, macOS and FreeBSD refuse such a bind and deliver broadcasts to a
// wildcard-bound socket instead.
type bindStrategy int

const (
	bindWildcard bindStrategy = iota
	bindBroadcast
)

func bindStrategyFor(goos string) bindStrategy {
	switch goos {
	case "windows", "darwin", "freebsd":
		return bindWildcard
	default:
		return bindBroadcast
	}
}
