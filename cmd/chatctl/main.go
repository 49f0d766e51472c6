package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/gookit/color"

	"github.com/Tyrowin/lanchat/internal/admin"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, color.New(color.FgRed).Render("Error: "+err.Error()))
		os.Exit(1)
	}
}

func run(args []string) error {
	flags := flag.NewFlagSet("chatctl", flag.ContinueOnError)
	addr := flags.String("addr", "http://localhost:8080", "Base URL of the relay")
	timeout := flags.Duration("timeout", 10*time.Second, "Request timeout")
	flags.Usage = func() {
		fmt.Fprintln(flags.Output(), "Usage: chatctl [flags] clear|history|health")
		flags.PrintDefaults()
	}
	if err := flags.Parse(args); err != nil {
		return err
	}
	if flags.NArg() != 1 {
		flags.Usage()
		return fmt.Errorf("expected exactly one command")
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()
	client := admin.NewClient(*addr, nil)

	switch command := flags.Arg(0); command {
	case "clear":
		confirmation, err := client.Clear(ctx)
		if err != nil {
			return err
		}
		fmt.Println(color.New(color.FgGreen).Render(confirmation))
	case "history":
		records, err := client.History(ctx)
		if err != nil {
			return err
		}
		if len(records) == 0 {
			fmt.Println(color.New(color.FgYellow).Render("History is empty"))
			return nil
		}
		admin.RenderHistory(os.Stdout, records)
	case "health":
		health, err := client.Health(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("%s connections=%d messages=%d\n",
			color.New(color.FgGreen).Render(health.Status), health.Connections, health.Messages)
	default:
		flags.Usage()
		return fmt.Errorf("unknown command %q", command)
	}
	return nil
}
