// Package main provides the CLI entrypoint for ninja-orval-forge.
//
// ninja-orval-forge turns Django models and legacy Django REST Framework
// code into Django Ninja routes and a typed frontend client:
//   - init writes the project skeleton and configuration
//   - generate maps one model to a CRUD feature
//   - migrate translates the serializers and view-sets of an app
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)

	h := newHandler(os.Stdout, os.Stderr)
	if err := h.RunContext(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)

		if h.exit == 0 {
			h.exit = 1
		}
	}

	stop()
	os.Exit(h.exit)
}
