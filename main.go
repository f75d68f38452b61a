package main

import (
	"fmt"
	"os"
	"strings"

	"cardboard/service"
)

// CliVersion is the released version, overridden at build time with -ldflags.
var CliVersion = "1.0.0"

var exit = os.Exit

func main() {
	RealMain()
}

// RealMain dispatches os.Args.
func RealMain() {
	if len(os.Args) < 2 {
		printHelp()
		exit(1)
		return
	}

	cmd := strings.ToLower(os.Args[1])
	switch cmd {
	case "help", "-h", "--help":
		printHelp()
	case "version":
		fmt.Printf("cardboard version %s\n", CliVersion)
	case "serve", "db":
		args := append([]string{cmd}, os.Args[2:]...)
		if code := service.HandleCommand(args, CliVersion); code != 0 {
			exit(code)
		}
	default:
		fmt.Printf("Unknown command: %s\n\n", os.Args[1])
		printHelp()
		exit(1)
	}
}

func printHelp() {
	helpText := `Usage: cardboard <command> [options]
Commands:
  help                                 Display this help message.
  version                              Show version information.
  serve [--config <file>]              Run the card marketplace web server.
  db <init|clean|backup|restore> ...   Manage the embedded badger database.
`
	fmt.Println(helpText)
}
