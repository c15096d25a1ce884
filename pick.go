package main

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"golang.org/x/term"

	"earshot/process"
)

// pickRows caps the picker height so the cursor redraw stays on screen.
// Narrowing with a filter is the way to reach anything below the cap.
const pickRows = 15

// pickProcess presents an interactive picker over running processes and
// returns the chosen name, ready to paste into a profile's [session]
// block. filter narrows the list to names containing the substring.
func pickProcess(filter string) (string, error) {
	procs, err := process.List()
	if err != nil {
		return "", fmt.Errorf("listing processes: %w", err)
	}

	filter = strings.ToLower(filter)
	seen := make(map[string]bool)
	var names []string
	for _, p := range procs {
		name := p.Name
		if name == "" {
			continue
		}
		if filter != "" && !strings.Contains(strings.ToLower(name), filter) {
			continue
		}
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	sort.Strings(names)

	if len(names) == 0 {
		return "", fmt.Errorf("no running process matches %q", filter)
	}
	if len(names) == 1 {
		return names[0], nil
	}

	hidden := 0
	if len(names) > pickRows {
		hidden = len(names) - pickRows
		names = names[:pickRows]
	}

	fd := int(os.Stdin.Fd())
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return "", fmt.Errorf("setting raw mode: %w", err)
	}

	defer term.Restore(fd, oldState)

	cursor := 0
	renderList := func() {
		fmt.Print("\r\x1b[J")
		fmt.Print("Select process (↑/↓, Enter to confirm):\r\n\r\n")
		for i, name := range names {
			if i == cursor {
				fmt.Printf("  \x1b[1;36m▶ %s\x1b[0m\r\n", name)
			} else {
				fmt.Printf("    %s\r\n", name)
			}
		}
		if hidden > 0 {
			fmt.Printf("    ... %d more hidden; narrow with: earshot -pick <name>\r\n", hidden)
		}
	}

	renderList()

	lines := len(names) + 2
	if hidden > 0 {
		lines++
	}

	buf := make([]byte, 3)
	for {
		n, err := os.Stdin.Read(buf)
		if err != nil {
			return "", fmt.Errorf("reading input: %w", err)
		}

		if n == 1 {
			switch buf[0] {
			case 13: // Enter
				fmt.Print("\r\n")
				term.Restore(fd, oldState)
				return names[cursor], nil
			case 3: // Ctrl+C
				fmt.Print("\r\n")
				term.Restore(fd, oldState)
				os.Exit(130)
			case 'j': // vim down
				if cursor < len(names)-1 {
					cursor++
				}
			case 'k': // vim up
				if cursor > 0 {
					cursor--
				}
			}
		} else if n == 3 && buf[0] == 0x1b && buf[1] == '[' {
			switch buf[2] {
			case 'A': // Up arrow
				if cursor > 0 {
					cursor--
				}
			case 'B': // Down arrow
				if cursor < len(names)-1 {
					cursor++
				}
			}
		}

		fmt.Printf("\x1b[%dA", lines)
		renderList()
	}
}
