package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"todoq/internal/cli"
)

func main() {
	// Root flags (apply to every subcommand)
	configDir := flag.String("config", "", "config directory (default ~/.todoq)")
	server := flag.String("server", "", "service base URL")
	plain := flag.Bool("plain", false, "plain ls output")
	group := flag.Bool("group", false, "group plain ls output by pending/done")
	debug := flag.Bool("debug", false, "verbose logging")
	flag.Parse()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	code := cli.Run(ctx, flag.Args(), cli.Options{
		ConfigDir: *configDir,
		ServerURL: *server,
		Plain:     *plain,
		Group:     *group,
		Debug:     *debug,
	})
	os.Exit(code)
}
