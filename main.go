package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli"
	"github.com/corvidtech/pocketcore/core"
	"github.com/corvidtech/pocketcore/core/render"
)

func main() {
	app := cli.NewApp()
	app.Name = "Pocketcore"
	app.Description = "A cycle-driven handheld console emulator core"
	app.Usage = "pocketcore [options] <ROM file>"
	app.Version = "1.0.0"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "rom",
			Usage: "Path to the ROM file",
		},
		cli.StringFlag{
			Name:  "boot-rom",
			Usage: "Path to a 256-byte boot ROM to run before the cartridge",
		},
	}
	app.Action = runEmulator

	err := app.Run(os.Args)
	if err != nil {
		slog.Error("Error running emulator", "error", err)
		os.Exit(core.ExitCode(err))
	}
}

func runEmulator(c *cli.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = core.RecoverGuestFault(r)
		}
	}()

	romPath := c.String("rom")
	if romPath == "" {
		if c.NArg() > 0 {
			romPath = c.Args().Get(0)
		} else {
			cli.ShowAppHelp(c)
			return core.Classify(core.KindMissingArgument, errors.New("no ROM path provided"))
		}
	}

	emu, err := core.NewWithFile(romPath)
	if err != nil {
		return err
	}
	defer emu.Close()

	if bootPath := c.String("boot-rom"); bootPath != "" {
		data, err := os.ReadFile(bootPath)
		if err != nil {
			return core.Classify(core.KindBootROM, fmt.Errorf("reading boot ROM: %w", err))
		}
		if err := emu.LoadBootROM(data); err != nil {
			return err
		}
	}

	renderer, err := render.NewTerminalRenderer(emu)
	if err != nil {
		return core.Classify(core.KindDisplayWindow, err)
	}

	return renderer.Run()
}
