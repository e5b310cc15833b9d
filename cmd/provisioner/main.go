// Package main provides the table provisioning CLI tool for Arena.
//
// The provisioner manages the lifecycle of the matchmaking DynamoDB table,
// supporting up/down/status commands so deployments and CI environments can
// create and tear down the table without hand-written console steps.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/nikita-skobov/arena-multiplayer/internal/storage"
)

// Version information
const (
	version = "1.0.0-dev"
	name    = "provisioner"
)

func main() {
	// Command line flags
	var (
		configHelp  = flag.Bool("help", false, "Show help information")
		showVersion = flag.Bool("version", false, "Show version information")
	)
	flag.Parse()

	// Handle version flag
	if *showVersion {
		fmt.Printf("%s v%s\n", name, version)
		os.Exit(0)
	}

	// Handle help flag or no arguments
	if *configHelp || len(os.Args) < 2 {
		printUsage()
		os.Exit(0)
	}

	// Parse command from arguments
	command := os.Args[1]

	// Load configuration from environment
	config := storage.LoadConfig()

	// Create table runner
	runner, err := NewTableRunner(config)
	if err != nil {
		log.Fatalf("Failed to create table runner: %v", err)
	}

	// Execute command
	if err := executeCommand(command, runner); err != nil {
		log.Fatalf("Provisioning failed: %v", err)
	}
}

// executeCommand runs the specified provisioning command
func executeCommand(command string, runner TableRunner) error {
	switch command {
	case "up":
		return runner.Up()
	case "down":
		fmt.Print("WARNING: This will delete the matchmaking table and every availability record in it. Are you sure? (y/N): ")

		var response string

		_, _ = fmt.Scanln(&response)

		if response == "y" || response == "Y" {
			return runner.Down()
		}

		fmt.Println("Operation cancelled.")

		return nil
	case "status":
		return runner.Status()
	default:
		return fmt.Errorf("unknown command: %s", command)
	}
}

// printUsage displays usage information
func printUsage() {
	fmt.Printf(`%s v%s - Matchmaking Table Provisioning Tool for Arena

USAGE:
    %s [OPTIONS] COMMAND

COMMANDS:
    up      Create the matchmaking table (no-op if it already exists)
    down    Delete the matchmaking table (requires confirmation)
    status  Show the current table status

OPTIONS:
    --help     Show this help message
    --version  Show version information

ENVIRONMENT VARIABLES:
    ARENA_TABLE_NAME               Matchmaking table name
                                   (default: mygametable2025)

    ARENA_AWS_REGION               AWS region, falls back to AWS_REGION
                                   (default: us-east-1)

    ARENA_DYNAMODB_ENDPOINT        Endpoint override for DynamoDB Local / CI
                                   (default: unset, real AWS)

    ARENA_AWS_ACCESS_KEY_ID        Static credentials, fall back to the
    ARENA_AWS_SECRET_ACCESS_KEY    standard AWS variables; leave unset to use
                                   the default AWS credential chain

    ARENA_PARTITION_KEY_ATTRIBUTE  Partition key attribute name (default: pk)
    ARENA_SORT_KEY_ATTRIBUTE       Sort key attribute name (default: sk)

EXAMPLES:
    %s up                    # Create the matchmaking table
    %s status                # Show current table status
    %s down                  # Delete the matchmaking table
    %s --version             # Show version information

For local development against DynamoDB Local, set ARENA_DYNAMODB_ENDPOINT.
`, name, version, name, name, name, name, name)
}
