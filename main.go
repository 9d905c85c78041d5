// Entrypoint for the Cobra CLI; delegates to the root command in cmd/root.go.

package main

import (
	"github.com/lantern-sim/lantern/cmd"
)

func main() {
	cmd.Execute()
}
