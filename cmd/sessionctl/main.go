// Command sessionctl is a terminal client for the tenant guard API. It keeps the
// session in Redis, guards routes locally and watches server liveness.
package main

import "github.com/i3m/tenant-guard/cmd/sessionctl/cmd"

func main() {
	cmd.Execute()
}
