package main

import (
	"os"
	"strings"

	"kanban-cli/internal/cli"
)

// rewriteBoardShortcutArgs turns `kanban <board-id>` into
// `kanban board open <board-id>`.
//
// Cobra treats the first non-flag token as a subcommand, so argv is rewritten
// before parsing. Persistent flags may come first (`kanban --api ... <id>`), so
// this looks for the first positional token rather than argv[1].
func rewriteBoardShortcutArgs(argv []string, isCommand func(string) bool) []string {
	if len(argv) < 2 {
		return argv
	}

	// Unknown flags are skipped without consuming a value so a board id is
	// never swallowed.
	valueFlags := map[string]bool{
		"--api":      true,
		"--token":    true,
		"--format":   true,
		"--log-file": true,
	}
	boolFlags := map[string]bool{
		"--pretty": true,
	}

	rewriteAt := func(i int) []string {
		out := make([]string, 0, len(argv)+2)
		out = append(out, argv[:i]...)
		out = append(out, "board", "open")
		out = append(out, argv[i:]...)
		return out
	}

	for i := 1; i < len(argv); i++ {
		a := strings.TrimSpace(argv[i])
		if a == "" {
			continue
		}
		if a == "--" {
			if i+1 < len(argv) && !isCommand(argv[i+1]) {
				return rewriteAt(i + 1)
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

		if isCommand(a) {
			return argv
		}
		return rewriteAt(i)
	}
	return argv
}

func main() {
	os.Args = rewriteBoardShortcutArgs(os.Args, cli.IsCommand)

	cmd := cli.NewRootCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
