// Command appserver-mcp serves the Sports2000 AppServer procedures as MCP
// tools over streamable HTTP.
package main

import "os"

// version can be set during build with -ldflags.
var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
