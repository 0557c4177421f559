package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/WessleyAI/mpg-narrative/engine/control"
	"github.com/WessleyAI/mpg-narrative/engine/narrative"
)

// executor applies one event and returns the resulting frame.
type executor func(ctx context.Context, e narrative.Event) (narrative.Frame, error)

const help = `commands:
  next | prev                  move between scenes
  fuel <name> on|off           include or exclude a fuel (scene 4)
  cyl <n>                      show 0..n cylinders (scene 4)
  measure city|highway|combined
  state                        redraw the current scene
  quit`

// repl reads commands from in until EOF or quit. Accepted commands redraw
// the chart; rejections are reported and leave the screen alone.
func repl(ctx context.Context, in io.Reader, out io.Writer, exec executor, sink narrative.Sink) error {
	draw := func(e narrative.Event) error {
		f, err := exec(ctx, e)
		if err != nil {
			return err
		}
		return sink.Render(ctx, f)
	}
	if err := draw(narrative.Event{Kind: control.KindState}); err != nil {
		return err
	}

	sc := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !sc.Scan() {
			fmt.Fprintln(out)
			return sc.Err()
		}
		line := strings.TrimSpace(sc.Text())
		switch strings.ToLower(line) {
		case "":
			continue
		case "quit", "exit", "q":
			return nil
		case "help", "?":
			fmt.Fprintln(out, help)
			continue
		}

		e, err := control.ParseCommand(line)
		if err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
			if errors.Is(err, control.ErrUnknownCommand) {
				fmt.Fprintln(out, "type 'help' for commands")
			}
			continue
		}
		if err := draw(e); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			fmt.Fprintf(out, "%v\n", err)
		}
	}
}
