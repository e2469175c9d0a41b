// Package main generates a development CA and a server certificate signed
// by it, for use with TLS_CERT and TLS_KEY.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/atinyakov/microfeed/internal/certgen"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run writes ca.crt, server.crt and server.key into -dir.
func run(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("certgen", flag.ContinueOnError)
	dir := fs.String("dir", "certs", "output directory")
	hosts := fs.String("hosts", "localhost,127.0.0.1", "comma-separated server hosts")
	days := fs.Int("days", 365, "server certificate validity in days")
	if err := fs.Parse(args); err != nil {
		return err
	}

	names := strings.FieldsFunc(*hosts, func(r rune) bool { return r == ',' || r == ' ' })

	ca, err := certgen.NewAuthority("microfeed dev CA", 10*365*24*time.Hour)
	if err != nil {
		return err
	}
	certPEM, keyPEM, err := ca.IssueServer(names, time.Duration(*days)*24*time.Hour)
	if err != nil {
		return err
	}

	caPath, err := certgen.WriteFile(*dir, "ca.crt", ca.CertPEM(), 0o644)
	if err != nil {
		return err
	}
	certPath, err := certgen.WriteFile(*dir, "server.crt", certPEM, 0o644)
	if err != nil {
		return err
	}
	keyPath, err := certgen.WriteFile(*dir, "server.key", keyPEM, 0o600)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "CA:     %s\nCert:   %s\nKey:    %s\n", caPath, certPath, keyPath)
	fmt.Fprintf(out, "Run the server with TLS_CERT=%s TLS_KEY=%s\n", certPath, keyPath)
	return nil
}
