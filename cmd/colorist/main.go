// Command colorist is the CLI entry point: parse argv into validated
// parameters, build the per-process context, dispatch to the planner,
// and map any error to exit code 1 (spec.md §6.1).
package main

import (
	"fmt"
	"os"

	"colorist.dev/colorist/cliparams"
	"colorist.dev/colorist/colorctx"
	"colorist.dev/colorist/logging"
	"colorist.dev/colorist/planner"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(argv []string) int {
	p, err := cliparams.Parse(argv)
	if err != nil {
		fmt.Fprintln(os.Stderr, "ERROR:", err)
		return 1
	}

	logger := logging.New(logging.Config{Verbose: p.Verbose, FilePath: p.LogFile})
	ctx := colorctx.New(
		colorctx.WithLogger(logger),
		colorctx.WithDefaultLuminance(defaultLuminance(p.DefaultLuminance)),
		colorctx.WithCMM(cmmFor(p.CMM)),
	)
	defer ctx.Close()

	if err := planner.Run(ctx, p); err != nil {
		logger.Error("cmd.colorist", err)
		fmt.Fprintln(os.Stderr, "ERROR:", err)
		return 1
	}
	return 0
}

func defaultLuminance(n int) int {
	if n <= 0 {
		return 300
	}
	return n
}

func cmmFor(name string) colorctx.CMM {
	switch name {
	case "colorist":
		return colorctx.CMMColorist
	case "lcms":
		return colorctx.CMMLCMS
	default:
		return colorctx.CMMAuto
	}
}
