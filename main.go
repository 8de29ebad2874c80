// =============================================================================
// Inventory Matcher - Main Entry Point
// =============================================================================
//
// This is the main entry point for the Inventory Matcher CLI application.
// It delegates command execution to the cmd package.
//
// USAGE:
//   matcher match <inventory> <lt24>    - Reconcile and write the export
//   matcher inspect <inventory> <lt24>  - Show detected columns and keys
//   matcher serve                       - Start the HTTP service
//   matcher version                     - Display the application version
//
// ARCHITECTURE:
//   - cmd/       : CLI command definitions (Cobra)
//   - internal/  : Loading, normalization, matching, export, HTTP service
//   - pkg/       : Shared file utilities
//
// =============================================================================

package main

import (
	"github.com/ginjaninja78/inventory-matcher/cmd"
)

func main() {
	cmd.Execute()
}
