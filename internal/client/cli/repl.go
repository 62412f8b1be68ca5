package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// Root runs the interactive session until the user exits or input ends.
// The connectivity watcher and the status aggregator run for its duration.
func (a *App) Root(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	printlnFn("Welcome to gnotes (type 'help' for commands)")
	a.Start(ctx)

	runREPL(ctx, a, a.statusLine, a.reader)
	return nil
}

// runREPL starts a simple read–eval–print loop.
//
// It reads a line from reader, parses the first token as the command and
// dispatches it through the command table. The loop exits on EOF or when
// the user types "exit" or "quit". Command errors are printed and the loop
// continues.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		printlnFn(fmt.Sprintf("notes (%s)> ", statusFn()))

		line, readErr := reader.ReadString('\n')
		parts := strings.Fields(line)

		if len(parts) > 0 {
			switch name := parts[0]; name {
			case "help", "?":
				printlnFn(helpText())

			case "exit", "quit":
				printlnFn("Bye!")
				return

			default:
				cmd, ok := lookupCommand(name)
				if !ok {
					printlnFn("Unknown command:", name)
					break
				}
				if err := cmd.run(a, ctx, parts[1:]); err != nil {
					printlnFn("Error:", err)
				}
			}
		}

		if readErr != nil || ctx.Err() != nil {
			return
		}
	}
}
