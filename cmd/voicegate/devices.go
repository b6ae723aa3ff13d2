package main

import (
	"context"
	"os"

	"github.com/kbukum/voicegate/capture/portaudio"
)

func runDevices(ctx context.Context, args []string) error {
	devices, err := portaudio.ListDevices()
	if err != nil {
		return err
	}
	return printJSON(os.Stdout, devices)
}
