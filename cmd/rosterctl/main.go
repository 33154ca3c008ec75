/*
main.go - rosterctl entry point

PURPOSE:
  Command-line access to the roster engine without a running server:
  resolve roster periods, inspect availability, and dry-run eligibility
  checks against a local store.

SEE ALSO:
  - root.go: command tree
  - cmd/server/main.go: the HTTP server
*/
package main

func main() {
	execute()
}
