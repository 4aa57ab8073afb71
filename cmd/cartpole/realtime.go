package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"strings"
	"sync/atomic"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/san-kum/cartpole/internal/dynamo"
	"github.com/san-kum/cartpole/internal/sim"
)

var errQuit = errors.New("quit")

// consoleCommand is one parsed stdin line.
type consoleCommand struct {
	verb  string
	param string
	value float64
}

func parseCommand(line string) (consoleCommand, error) {
	fields := strings.Fields(strings.ToLower(line))
	if len(fields) == 0 {
		return consoleCommand{}, nil
	}
	cmd := consoleCommand{verb: fields[0]}

	switch cmd.verb {
	case "left", "right", "reset", "quit", "status":
		if len(fields) != 1 {
			return cmd, fmt.Errorf("%s takes no arguments", cmd.verb)
		}
	case "push":
		if len(fields) != 2 {
			return cmd, fmt.Errorf("usage: push X")
		}
		v, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return cmd, fmt.Errorf("push: %w", err)
		}
		cmd.value = v
	case "set":
		if len(fields) != 3 {
			return cmd, fmt.Errorf("usage: set p|d VALUE")
		}
		v, err := strconv.ParseFloat(fields[2], 64)
		if err != nil {
			return cmd, fmt.Errorf("set: %w", err)
		}
		cmd.param, cmd.value = fields[1], v
	default:
		return cmd, fmt.Errorf("unknown command %q", cmd.verb)
	}
	return cmd, nil
}

// console applies commands to a running Runner. Left and right push relative
// to the bob's last reported x.
type console struct {
	runner *sim.Runner
	bobX   func() float64
	out    io.Writer
}

func (c *console) exec(ctx context.Context, cmd consoleCommand) error {
	switch cmd.verb {
	case "":
		return nil
	case "quit":
		return errQuit
	case "push":
		return c.runner.Disturb(ctx, cmd.value)
	case "left":
		return c.runner.Disturb(ctx, c.bobX()+1)
	case "right":
		return c.runner.Disturb(ctx, c.bobX()-1)
	case "reset":
		return c.runner.Reset(ctx)
	case "set":
		if err := c.runner.SetParam(cmd.param, cmd.value); err != nil {
			return err
		}
		g := c.runner.Gains()
		fmt.Fprintf(c.out, "gains: p=%.3f d=%.3f\n", g.P(), g.D())
	case "status":
		g := c.runner.Gains()
		fmt.Fprintf(c.out, "gains: p=%.3f d=%.3f bob x=%.1f\n", g.P(), g.D(), c.bobX())
	}
	return nil
}

// atomicFloat shares the bob x between the tick loop and the console.
type atomicFloat struct{ bits atomic.Uint64 }

func (a *atomicFloat) Store(v float64) { a.bits.Store(math.Float64bits(v)) }

func (a *atomicFloat) Load() float64 { return math.Float64frombits(a.bits.Load()) }

func runRealtime(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s := sim.New(cfg, sim.WithLogger(log))
	r := sim.NewRunner(s, tickRate, log)

	var bobX atomicFloat
	bobX.Store(s.Frame().Bob.Position.X)
	every := uint64(max(1, int(tickRate)))
	s.AddObserver(dynamo.ObserverFunc(func(f dynamo.Frame) {
		bobX.Store(f.Bob.Position.X)
		if f.Tick%every == 0 {
			fmt.Printf("tick %6d  angle %+.4f  rate %+.5f  force %+.6f\n", f.Tick, f.Angle, f.AngularVelocity, f.Force)
		}
	}))

	maxTicks := 0
	if cmd.Flags().Changed("ticks") {
		maxTicks = cfg.Ticks
	}

	// stdin reads cannot be canceled; the reader outlives the group on exit
	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(os.Stdin)
		for sc.Scan() {
			lines <- sc.Text()
		}
	}()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(runCtx)

	g.Go(func() error {
		defer cancel()
		return r.Run(gctx, maxTicks)
	})

	con := &console{runner: r, bobX: bobX.Load, out: os.Stdout}
	g.Go(func() error {
		for {
			select {
			case <-gctx.Done():
				return nil
			case line, ok := <-lines:
				if !ok {
					return nil
				}
				c, err := parseCommand(line)
				if err != nil {
					fmt.Fprintln(os.Stderr, err)
					continue
				}
				if err := con.exec(gctx, c); err != nil {
					if errors.Is(err, errQuit) {
						cancel()
						return nil
					}
					if gctx.Err() != nil {
						return nil
					}
					fmt.Fprintln(os.Stderr, err)
				}
			}
		}
	})

	fmt.Println("commands: push X | left | right | reset | set p|d V | status | quit")
	err = g.Wait()
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	log.Info("realtime stopped", zap.Uint64("tick", s.Frame().Tick))
	return err
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
