// Command voicegate records speech until silence, transcribes audio and
// serves transcription over HTTP.
//
//	voicegate serve [--port 0] [--announce]
//	voicegate record [--input file.wav] [--archive]
//	voicegate transcribe [--provider fasterwhisper] <file>
//	voicegate watch --dir ./inbox
//	voicegate devices
//	voicegate version
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"

	"github.com/kbukum/voicegate/version"
)

type command struct {
	name    string
	summary string
	run     func(ctx context.Context, args []string) error
}

var commands = []command{
	{"serve", "run the HTTP transcription API", runServe},
	{"record", "record until silence, then transcribe and archive", runRecord},
	{"transcribe", "transcribe an audio file", runTranscribe},
	{"watch", "transcribe WAV files dropped into a directory", runWatch},
	{"devices", "list audio input devices", runDevices},
	{"version", "print version information", runVersion},
}

func main() {
	if err := dispatch(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "voicegate: %v\n", err)
		os.Exit(1)
	}
}

func dispatch(ctx context.Context, args []string) error {
	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" || args[0] == "help" {
		usage(os.Stderr)
		return nil
	}
	for _, c := range commands {
		if c.name == args[0] {
			err := c.run(ctx, args[1:])
			if errors.Is(err, pflag.ErrHelp) {
				return nil
			}
			return err
		}
	}
	usage(os.Stderr)
	return fmt.Errorf("unknown command %q", args[0])
}

func usage(w io.Writer) {
	fmt.Fprintf(w, "voicegate %s\n\nUsage: voicegate <command> [flags]\n\nCommands:\n", version.GetVersionInfo())
	for _, c := range commands {
		fmt.Fprintf(w, "  %-11s %s\n", c.name, c.summary)
	}
	fmt.Fprintf(w, "\nRun 'voicegate <command> --help' for command flags.\n")
}

func runVersion(ctx context.Context, args []string) error {
	return printJSON(os.Stdout, version.GetVersionInfo())
}

// printJSON writes v as indented JSON; results go to stdout, logs to stderr.
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
