/*
 * VSP core - CLI entry point.
 *
 * Copyright 2026, VSP core contributors.
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in
 * all copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 */

// vspctl is the VSP core's CLI: run a SILC image to completion, drive it
// interactively through the debug console, pack a raw bytecode file into
// a SILC container, inspect one, or run an orchestrator deployment off a
// config file. A cobra command tree, since VSP has no telnet-attached
// devices.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/vsp-core/vsp/command/console"
	config "github.com/vsp-core/vsp/config/configparser"
	_ "github.com/vsp-core/vsp/config/roles"
	"github.com/vsp-core/vsp/orchestrator"
	"github.com/vsp-core/vsp/orchestrator/schedule"
	"github.com/vsp-core/vsp/silc"
	_ "github.com/vsp-core/vsp/util/debug"
	"github.com/vsp-core/vsp/util/logger"
	"github.com/vsp-core/vsp/vsp/engine"
	"github.com/vsp-core/vsp/vsp/interp"
	"github.com/vsp-core/vsp/vsp/isa"
)

func main() {
	programLevel := new(slog.LevelVar)
	programLevel.Set(slog.LevelInfo)
	slog.SetDefault(slog.New(logger.NewHandler(os.Stderr, &slog.HandlerOptions{Level: programLevel}, nil)))

	root := &cobra.Command{
		Use:   "vspctl",
		Short: "VSP core command line",
	}

	root.AddCommand(runCmd())
	root.AddCommand(consoleCmd())
	root.AddCommand(packCmd())
	root.AddCommand(inspectCmd())
	root.AddCommand(orchestrateCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "vspctl:", err)
		os.Exit(1)
	}
}

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run <image.silc>",
		Short: "Run a SILC image to completion",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			img, err := readImage(args[0])
			if err != nil {
				return err
			}
			prog, err := interp.PreDecode(img.Code)
			if err != nil {
				return err
			}
			m := engine.NewMachine(img.Code, img.Data)
			m.PC = int(img.EntryPoint)

			r0, cycles, err := interp.Run(m, prog)
			if err != nil {
				return err
			}
			fmt.Printf("halted after %d cycles, r0=%+v\n", cycles, r0)
			return nil
		},
	}
}

func consoleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "console [image.silc]",
		Short: "Start the interactive debug console",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess := console.NewSession()
			if len(args) == 1 {
				if err := sess.Load(args[0]); err != nil {
					return err
				}
			}
			console.ConsoleReader(sess)
			return nil
		},
	}
}

func packCmd() *cobra.Command {
	var dataPath string
	var entry uint32

	cmd := &cobra.Command{
		Use:   "pack <code.bin> <out.silc>",
		Short: "Wrap a raw bytecode file in a SILC container",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			code, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			var data []byte
			if dataPath != "" {
				data, err = os.ReadFile(dataPath)
				if err != nil {
					return err
				}
			}
			if _, err := interp.PreDecode(code); err != nil {
				return fmt.Errorf("refusing to pack undecodable code: %w", err)
			}

			out, err := os.Create(args[1])
			if err != nil {
				return err
			}
			defer out.Close()

			img := &silc.Image{EntryPoint: entry, Code: code, Data: data}
			if err := silc.Write(out, img); err != nil {
				return err
			}
			fmt.Printf("wrote %s (%d code bytes, %d data bytes)\n", args[1], len(code), len(data))
			return nil
		},
	}
	cmd.Flags().StringVar(&dataPath, "data", "", "Data segment file")
	cmd.Flags().Uint32Var(&entry, "entry", 0, "Entry point offset into the code segment")
	return cmd
}

func inspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <image.silc>",
		Short: "Print a SILC image's header and disassembly",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			img, err := readImage(args[0])
			if err != nil {
				return err
			}
			fmt.Printf("entry=%d code=%d bytes data=%d bytes symbols=%d\n",
				img.EntryPoint, len(img.Code), len(img.Data), len(img.Symbols))
			for _, sym := range img.Symbols {
				fmt.Printf("  sym %-16s addr=%d kind=%d\n", sym.Name, sym.Addr, sym.Kind)
			}

			pc := 0
			for pc < len(img.Code) {
				inst, err := isa.Decode(img.Code, pc)
				if err != nil {
					return err
				}
				fmt.Printf("%04d  %s\n", pc, isa.Mnemonic(inst.Op))
				pc += inst.Len
			}
			return nil
		},
	}
}

func orchestrateCmd() *cobra.Command {
	var hz float64
	var duration time.Duration

	cmd := &cobra.Command{
		Use:   "orchestrate <config-file>",
		Short: "Load a component deployment and run its tick loop",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			orch := orchestrator.New()
			if err := config.LoadConfigFile(orch, args[0]); err != nil {
				return err
			}

			sched := schedule.New(schedule.FixedRate, hz, orch.Tick)
			sched.Start()

			ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			if duration > 0 {
				select {
				case <-ctx.Done():
				case <-time.After(duration):
				}
			} else {
				<-ctx.Done()
			}

			sched.Shutdown()
			stats := sched.Stats()
			fmt.Printf("avg=%s min=%s max=%s jitter=%.1fus missed=%d\n",
				stats.Avg, stats.Min, stats.Max, stats.JitterStdDev/1000, stats.Miss)
			return nil
		},
	}
	cmd.Flags().Float64Var(&hz, "hz", 10, "Tick rate in hertz")
	cmd.Flags().DurationVar(&duration, "duration", 0, "Stop after this long (0 = run until signalled)")
	return cmd
}

func readImage(path string) (*silc.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return silc.Read(f)
}
