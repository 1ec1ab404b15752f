// Command modelkit configures, saves, loads and fits parameterized models.
package main

import "github.com/mesh-intelligence/modelkit/internal/cli"

func main() {
	cli.Execute()
}
