// analyser: engagement advisor for freelancers and small agencies.
//
// It tracks client projects through their stages, keeps the evidence that
// justifies invoices and contracts, and answers through an advisor that
// watches each conversation for early signs of trouble.
//
// Usage:
//
//	analyser serve     # Start the MCP server (stdio transport)
//	analyser http      # Start the HTTP API
//	analyser version   # Show version information
package main

func main() {
	Execute()
}
