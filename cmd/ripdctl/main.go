// ripdctl is the CLI client for the ripd daemon.
package main

import "github.com/ripd/ripd/cmd/ripdctl/commands"

func main() {
	commands.Execute()
}
