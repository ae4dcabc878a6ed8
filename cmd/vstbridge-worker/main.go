// Command vstbridge-worker hosts one plugin on behalf of a vstbridge caller.
//
//	vstbridge-worker <plugin path> <port id> [<log level> <log path>]
//
// The port id is the caller's control port. The log level ranges from 0
// (quiet) to 4 (flood); an empty log path or "-" logs to standard error.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"strconv"

	"golang.org/x/sys/unix"

	"gosuda.org/vstbridge"
)

// Exit codes
const (
	exitOK    = 0
	exitUsage = 1
	exitInit  = 2
)

func init() {
	// The plugin's main thread is the process's main thread.
	runtime.LockOSThread()
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("vstbridge-worker", flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "usage: vstbridge-worker <plugin path> <port id> [<log level> <log path>]")
	}
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if fs.NArg() != 2 && fs.NArg() != 4 {
		fmt.Fprintf(os.Stderr, "vstbridge-worker: wrong number of arguments: %d\n", fs.NArg())
		fs.Usage()
		return exitUsage
	}

	pluginPath := fs.Arg(0)
	portID, err := strconv.Atoi(fs.Arg(1))
	if err != nil || portID < 0 {
		fmt.Fprintf(os.Stderr, "vstbridge-worker: invalid port id %q\n", fs.Arg(1))
		return exitUsage
	}

	level, logPath, badLevel := vstbridge.LogTrace, "", ""
	if fs.NArg() == 4 {
		n, err := strconv.Atoi(fs.Arg(2))
		if err != nil || !vstbridge.LogLevel(n).Valid() {
			badLevel = fs.Arg(2)
		} else {
			level = vstbridge.LogLevel(n)
		}
		logPath = fs.Arg(3)
	}

	sink, err := vstbridge.OpenLogSink(logPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "vstbridge-worker: %v, logging to stderr\n", err)
		sink, _ = vstbridge.OpenLogSink("")
	}
	defer sink.Close()

	log := vstbridge.NewLogger(sink, level, pluginPath)
	if badLevel != "" {
		log.Error("Invalid log level, using trace", "level", badLevel)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, unix.SIGTERM)
	defer stop()

	log.Info("Starting worker", "pid", os.Getpid(), "port", portID, "protocol", vstbridge.CurrentVersion.Encode())
	w := vstbridge.NewWorker(vstbridge.WorkerOptions{Logger: log})
	if err := w.Attach(ctx, pluginPath, portID); err != nil {
		log.Error("Unable to initialize worker", "err", err)
		return exitInit
	}

	if err := w.Serve(ctx); err != nil {
		log.Error("Worker failed", "err", err)
	}
	if err := w.Close(); err != nil {
		log.Error("Unable to release ports", "err", err)
	}
	log.Info("Worker terminated")
	return exitOK
}
