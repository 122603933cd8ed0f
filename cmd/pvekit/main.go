package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"golang.org/x/term"

	"github.com/yourusername/pvekit/pkg/proxmox"
)

var (
	apiHost     = flag.String("api-host", "", "Proxmox host name or address (API on port 8006)")
	tokenID     = flag.String("token-id", "", "API token id (format: user@realm!tokenid)")
	tokenSecret = flag.String("token-secret", "", "API token secret (prompted when omitted)")
	tlsVerify   = flag.Bool("tls-verify", false, "Validate the API server certificate chain")
	debug       = flag.Bool("debug", false, "Enable debug logging")
	version     = flag.Bool("version", false, "Show version information")
)

// Version is set at build time via -ldflags
var appVersion = "dev"

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: pvekit [flags] <command> [args]

Commands:
  nodes                                       List cluster nodes
  storage <node>                              List storage pools on a node
  content <node> <storage>                    List stored artifacts
  upload <node> <storage> <kind> <file> <url> Fetch an artifact by URL (kind: iso, vztmpl, import)
  vms <node>                                  List virtual machines on a node
  create <node> [create flags]                Create a virtual machine
  start <node> <name>                         Start a virtual machine
  shutdown <node> <name>                      Gracefully shut down a virtual machine
  delete <node> <name>                        Delete a virtual machine
  dashboard                                   Interactive cluster dashboard
  history                                     Show recent operations
  version                                     Show version information

Flags:
`)
	flag.PrintDefaults()
	fmt.Fprintf(os.Stderr, `
Authentication can also come from the environment:
  PVE_HOST, PVE_TOKEN_ID, PVE_TOKEN_SECRET

Example:
  pvekit --api-host=pve01.example.com --token-id='root@pam!cli' vms pve01
`)
}

func main() {
	flag.Usage = usage
	flag.Parse()

	if *version {
		fmt.Printf("pvekit version %s\n", appVersion)
		os.Exit(0)
	}

	// Set up logging
	if *debug {
		logFile, err := os.OpenFile("pvekit.log", os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err != nil {
			log.Fatal("Failed to open log file:", err)
		}
		defer logFile.Close()
		log.SetOutput(logFile)
	} else {
		log.SetOutput(io.Discard)
	}

	args := flag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(1)
	}
	command := args[0]
	args = args[1:]

	switch command {
	case "version":
		fmt.Printf("pvekit version %s\n", appVersion)
		return
	case "history":
		// Local read, no connection required
		if err := cmdHistory(args); err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			os.Exit(1)
		}
		return
	}

	host, id, secret := credentials()

	var opts []proxmox.Option
	if *tlsVerify {
		opts = append(opts, proxmox.WithTLSVerify(true))
	}

	session, err := proxmox.Connect(host, id, secret, opts...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to connect to Proxmox API: %v\n", err)
		fmt.Fprintln(os.Stderr, "\nTroubleshooting:")
		fmt.Fprintln(os.Stderr, "  • Check that the API host is correct:", host)
		fmt.Fprintln(os.Stderr, "  • Verify that the Proxmox API is reachable on port 8006")
		fmt.Fprintln(os.Stderr, "  • Ensure the token id and secret are valid")
		os.Exit(1)
	}
	log.Printf("Connected to %s", host)

	if err := runCommand(session, command, args); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// credentials resolves host and token from flags, then the environment,
// prompting for the secret as a last resort so it stays out of shell history.
func credentials() (host, id, secret string) {
	host = *apiHost
	if host == "" {
		host = os.Getenv("PVE_HOST")
	}
	id = *tokenID
	if id == "" {
		id = os.Getenv("PVE_TOKEN_ID")
	}
	secret = *tokenSecret
	if secret == "" {
		secret = os.Getenv("PVE_TOKEN_SECRET")
	}

	if host == "" || id == "" {
		fmt.Fprintln(os.Stderr, "Error: Authentication required")
		fmt.Fprintln(os.Stderr, "\nOptions:")
		fmt.Fprintln(os.Stderr, "  1. Use flags: --api-host=pve01.example.com --token-id='root@pam!cli'")
		fmt.Fprintln(os.Stderr, "  2. Set environment variables: PVE_HOST, PVE_TOKEN_ID, PVE_TOKEN_SECRET")
		os.Exit(1)
	}

	if secret == "" {
		fmt.Fprintf(os.Stderr, "Token secret for %s: ", id)
		raw, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to read token secret: %v\n", err)
			os.Exit(1)
		}
		secret = string(raw)
	}

	return host, id, secret
}
