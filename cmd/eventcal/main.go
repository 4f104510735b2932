package main

import (
	"os"
	"strings"

	"github.com/joho/godotenv"

	"eventcal/internal/cli"
)

func isEventID(s string) bool {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "ev-") {
		return false
	}
	return len(s) > len("ev-")
}

// rewriteDirectEventLookupArgs turns `eventcal <event-id>` into `eventcal events show <event-id>`.
//
// Cobra treats the first non-flag token as a subcommand, so argv is rewritten before parsing.
// Persistent flags may come first (`eventcal --dir ... ev-xxxx`), so we look for the first
// positional token rather than argv[1].
func rewriteDirectEventLookupArgs(argv []string) []string {
	if len(argv) < 2 {
		return argv
	}

	// Unrecognized flags are skipped without consuming a value so the id is never swallowed.
	valueFlags := map[string]bool{
		"--dir":       true,
		"--config":    true,
		"--format":    true,
		"--log-level": true,
	}
	boolFlags := map[string]bool{
		"--pretty": true,
	}

	showAt := func(i int) []string {
		out := make([]string, 0, len(argv)+2)
		out = append(out, argv[:i]...)
		out = append(out, "events", "show")
		return append(out, argv[i:]...)
	}

	for i := 1; i < len(argv); i++ {
		a := strings.TrimSpace(argv[i])
		if a == "" {
			continue
		}
		if a == "--" {
			if i+1 < len(argv) && isEventID(argv[i+1]) {
				return showAt(i + 1)
			}
			return argv
		}
		if strings.HasPrefix(a, "-") {
			if strings.Contains(a, "=") || boolFlags[a] {
				continue
			}
			if valueFlags[a] {
				i++
			}
			continue
		}
		if isEventID(a) {
			return showAt(i)
		}
		return argv
	}
	return argv
}

func main() {
	// A missing .env is normal; only values not already set in the environment are taken.
	_ = godotenv.Load()

	os.Args = rewriteDirectEventLookupArgs(os.Args)

	cmd := cli.NewRootCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
