package main

import (
	"fmt"
	"log"
	"os"

	"github.com/ironsheep/cartoonize-mcp/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("cartoonize-mcp %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			fmt.Println("cartoonize-mcp - MCP server that turns photos into cartoons")
			fmt.Println()
			fmt.Println("Usage: cartoonize-mcp [options]")
			fmt.Println()
			fmt.Println("Options:")
			fmt.Println("  --version, -v    Print version information")
			fmt.Println("  --help, -h       Print this help message")
			fmt.Println()
			fmt.Println("Environment variables:")
			fmt.Printf("  %s=debug        Enable debug logging\n", server.EnvLogLevel)
			fmt.Printf("  %s=<int>             Fixed k-means seed\n", server.EnvSeed)
			fmt.Printf("  %s=fixed|scaled Edge intensity handling\n", server.EnvEdgeMode)
			fmt.Printf("  %s=<px>       Longest preview side (default %d)\n", server.EnvPreviewMax, server.DefaultPreviewMax)
			fmt.Printf("  %s=true             Clamp out-of-range parameters\n", server.EnvClamp)
			fmt.Println()
			fmt.Println("This server communicates via MCP protocol over stdin/stdout.")
			fmt.Println("Configure it in your MCP client (e.g., Claude Desktop).")
			return
		}
	}

	// stdout is reserved for the protocol
	log.SetOutput(os.Stderr)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	cfg, err := server.ConfigFromEnv(os.Getenv)
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}
	if cfg.Debug {
		log.Printf("Cartoonize MCP Server v%s (built %s, commit %s)", Version, BuildTime, GitCommit)
		log.Printf("edge mode %s, preview max %d, clamp %t", cfg.EdgeMode, cfg.PreviewMax, cfg.Clamp)
	}

	if err := server.New(cfg).Run(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
