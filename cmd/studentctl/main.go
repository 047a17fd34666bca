// studentctl is a command-line client for the student register server.
//
//	studentctl list
//	studentctl add --name "Alice Smith" --student-id 1001 --email a@s.com --contact 1234567890
//	studentctl edit 0 --email alice@s.com
//	studentctl delete 0
//	studentctl state
//	studentctl reload
//
// The server address comes from --addr, then STUDENTCTL_ADDR, then
// http://localhost:8082.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
