package cmd

import (
	"fmt"
	"strings"

	"github.com/achilleasa/tileray/log"
	"github.com/urfave/cli"
)

var logger = log.New("tileray")

func setupLogging(ctx *cli.Context) error {
	if ctx.GlobalBool("v") {
		log.SetLevel(log.Info)
	}

	if ctx.GlobalBool("vv") {
		log.SetLevel(log.Debug)
	}

	// Per-module overrides, e.g. --log-module bvh=debug
	for _, spec := range ctx.GlobalStringSlice("log-module") {
		module, levelName, found := strings.Cut(spec, "=")
		if !found {
			return fmt.Errorf("invalid log-module value %q; expected module=level", spec)
		}
		level, err := log.ParseLevel(levelName)
		if err != nil {
			return err
		}
		log.SetModuleLevel(module, level)
	}
	return nil
}
