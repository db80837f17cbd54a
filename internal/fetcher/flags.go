package fetcher

import (
	"strings"

	"github.com/go-rod/rod/lib/launcher/flags"
)

// launcherFlag turns "--name=value" into a rod flag and its values.
func launcherFlag(arg string) (flags.Flag, string) {
	name, value, _ := strings.Cut(strings.TrimLeft(arg, "-"), "=")
	return flags.Flag(name), value
}
