package main

import (
	"bufio"
	"cmp"
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/atinyakov/microfeed/internal/client"
	"github.com/atinyakov/microfeed/internal/models"
	"github.com/atinyakov/microfeed/internal/validation"
)

var (
	version   string
	buildDate string
)

const helpText = `Available commands:
  signup <email> <secret> <name...>
  login <email> <secret>
  post <text...>
  delete <post-id>
  follow <account-id>
  unfollow <account-id>
  feed [limit]
  accounts
  exit`

// repl runs the interactive shell loop, reading commands from in.
func repl(ctx context.Context, c *client.Client, in io.Reader, out io.Writer) {
	scanner := bufio.NewScanner(in)

	for {
		fmt.Fprint(out, "microfeed> ")
		if !scanner.Scan() {
			break
		}
		args := strings.Fields(strings.TrimSpace(scanner.Text()))
		if len(args) == 0 {
			continue
		}
		switch args[0] {
		case "help":
			fmt.Fprintln(out, helpText)
		case "signup":
			if len(args) < 4 {
				fmt.Fprintln(out, "Usage: signup <email> <secret> <name...>")
				continue
			}
			a, err := c.Signup(ctx, validation.AccountInput{
				Name:         strings.Join(args[3:], " "),
				Email:        args[1],
				Secret:       args[2],
				Confirmation: args[2],
			})
			if err != nil {
				fmt.Fprintln(out, "Error:", err)
				continue
			}
			fmt.Fprintf(out, "Account created: %s\n", a.ID)
		case "login":
			if len(args) != 3 {
				fmt.Fprintln(out, "Usage: login <email> <secret>")
				continue
			}
			a, err := c.Login(ctx, args[1], args[2])
			if err != nil {
				fmt.Fprintln(out, "Error:", err)
				continue
			}
			fmt.Fprintf(out, "Logged in as %s (%s)\n", a.Name, a.ID)
		case "post":
			if len(args) < 2 {
				fmt.Fprintln(out, "Usage: post <text...>")
				continue
			}
			p, err := c.Post(ctx, strings.Join(args[1:], " "))
			if err != nil {
				fmt.Fprintln(out, "Error:", err)
				continue
			}
			fmt.Fprintf(out, "Posted: %s\n", p.ID)
		case "delete", "follow", "unfollow":
			if len(args) != 2 {
				fmt.Fprintf(out, "Usage: %s <id>\n", args[0])
				continue
			}
			var err error
			switch args[0] {
			case "delete":
				err = c.DeletePost(ctx, args[1])
			case "follow":
				err = c.Follow(ctx, args[1])
			default:
				err = c.Unfollow(ctx, args[1])
			}
			if err != nil {
				fmt.Fprintln(out, "Error:", err)
				continue
			}
			fmt.Fprintln(out, "OK")
		case "feed":
			page := models.Page{}
			if len(args) > 1 {
				_, _ = fmt.Sscanf(args[1], "%d", &page.Limit)
			}
			posts, err := c.Feed(ctx, page)
			if err != nil {
				fmt.Fprintln(out, "Error:", err)
				continue
			}
			for _, p := range posts {
				fmt.Fprintf(out, "%s  %s  %s\n", p.CreatedAt.Format("2006-01-02 15:04"), p.AccountID, p.Body)
			}
		case "accounts":
			accounts, err := c.Accounts(ctx, models.Page{})
			if err != nil {
				fmt.Fprintln(out, "Error:", err)
				continue
			}
			for _, a := range accounts {
				fmt.Fprintf(out, "%s  %s\n", a.ID, a.Name)
			}
		case "exit":
			fmt.Fprintln(out, "Bye")
			return
		default:
			fmt.Fprintln(out, "Unknown command. Type 'help' for a list of commands.")
		}
	}
}

// main parses command-line flags and starts the shell.
func main() {
	var (
		baseURL string
		caFile  string
		showVer bool
	)

	flag.StringVar(&baseURL, "url", "http://localhost:8080", "server base URL")
	flag.StringVar(&caFile, "ca", "", "path to CA cert for https servers")
	flag.BoolVar(&showVer, "version", false, "show build version and date")
	flag.Parse()

	if showVer {
		fmt.Printf("microfeed client\nVersion: %s\nBuild Date: %s\n", cmp.Or(version, "N/A"), cmp.Or(buildDate, "N/A"))
		return
	}

	hc, err := client.NewHTTPClient(caFile)
	if err != nil {
		log.Fatal(err)
	}
	repl(context.Background(), client.New(baseURL, hc), os.Stdin, os.Stdout)
}
