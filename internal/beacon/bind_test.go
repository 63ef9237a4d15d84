package beacon

import "testing"

func TestBindStrategyFor(t *testing.T) {
	cases := []struct {
		goos string
		want bindStrategy
	}{
		{"linux", bindBroadcast},
		{"openbsd", bindBroadcast},
		{"netbsd", bindBroadcast},
		{"windows", bindWildcard},
		{"darwin", bindWildcard},
		{"freebsd", bindWildcard},
	}

	for _, c := range cases {
		if got := bindStrategyFor(c.goos); got != c.want {
			t.Errorf("bindStrategyFor(%q): got %d, want %d", c.goos, got, c.want)
		}
	}
}
