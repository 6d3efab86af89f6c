// Package main is a command line driver that loads a scene file, solves its node constraints and prints the
// result.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/benbjohnson/clock"
	"github.com/urfave/cli/v2"

	"go.viam.com/nodeconstraint/logging"
	"go.viam.com/nodeconstraint/scene"
)

const (
	// Flags.
	flagScene    = "scene"
	flagTicks    = "ticks"
	flagInterval = "interval"
	flagDebug    = "debug"
	flagDOT      = "dot"
)

func newApp() *cli.App {
	var logger logging.Logger

	sceneFlag := &cli.PathFlag{
		Name:     flagScene,
		Aliases:  []string{"s"},
		Required: true,
		Usage:    "load the scene from `FILE`",
	}

	return &cli.App{
		Name:  "constraintsim",
		Usage: "solve node constraints over a scene file",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    flagDebug,
				Aliases: []string{"vvv"},
				Usage:   "enable debug logging",
			},
		},
		Before: func(c *cli.Context) error {
			if c.Bool(flagDebug) {
				logger = logging.NewDebugLogger("constraintsim")
			} else {
				logger = logging.NewLogger("constraintsim")
			}
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:      "run",
				Usage:     "run the scene's ticks and print the final node transforms",
				UsageText: "constraintsim run --scene <file> [--ticks <n>] [--interval <duration>]",
				Flags: []cli.Flag{
					sceneFlag,
					&cli.IntFlag{
						Name:  flagTicks,
						Usage: "number of ticks to run, defaults to the ticks in the scene file",
					},
					&cli.DurationFlag{
						Name:  flagInterval,
						Usage: "wait this long between ticks, like a render loop would",
					},
				},
				Action: func(c *cli.Context) error {
					s, err := load(c, logger)
					if err != nil {
						return err
					}
					if interval := c.Duration(flagInterval); interval > 0 {
						err = s.Play(c.Context, clock.New(), interval, c.Int(flagTicks))
					} else {
						err = s.Run(c.Int(flagTicks))
					}
					if err != nil {
						return err
					}
					fmt.Fprintln(c.App.Writer, s.Graph().String())
					return nil
				},
			},
			{
				Name:      "order",
				Usage:     "print the order the scene's constraints are evaluated in",
				UsageText: "constraintsim order --scene <file> [--dot]",
				Flags: []cli.Flag{
					sceneFlag,
					&cli.BoolFlag{
						Name:  flagDOT,
						Usage: "print the dependency graph in graphviz dot format instead of a table",
					},
				},
				Action: func(c *cli.Context) error {
					s, err := load(c, logger)
					if err != nil {
						return err
					}
					if c.Bool(flagDOT) {
						return writeDOT(c.App.Writer, s.Solver())
					}
					fmt.Fprintln(c.App.Writer, s.Solver().String())
					return nil
				},
			},
			{
				Name:  "schema",
				Usage: "print the JSON schema of scene files",
				Action: func(c *cli.Context) error {
					out, err := scene.Schema()
					if err != nil {
						return err
					}
					fmt.Fprintln(c.App.Writer, string(out))
					return nil
				},
			},
		},
	}
}

func load(c *cli.Context, logger logging.Logger) (*scene.Scene, error) {
	cfg, err := scene.Read(c.Path(flagScene))
	if err != nil {
		return nil, err
	}
	return scene.Build(cfg, logger.Sublogger("scene"))
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
