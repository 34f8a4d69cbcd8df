/*
 * VSP core - Interactive debug console reader.
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

// Package console is an interactive debug shell for a running VSP
// machine: load an image, single-step or free-run it, set breakpoints,
// and dump registers, state layers, and disassembly, built around
// engine.Machine and interp.Program rather than a device registry, since
// VSP has no devices to attach.
package console

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/peterh/liner"

	"github.com/vsp-core/vsp/silc"
	"github.com/vsp-core/vsp/vsp/engine"
	"github.com/vsp-core/vsp/vsp/interp"
)

// Session holds the console's view of one loaded program: its machine,
// the pre-decoded program driving Run/Step, and the active breakpoints.
type Session struct {
	Machine     *engine.Machine
	Program     *interp.Program
	Breakpoints map[int]bool
}

// NewSession returns an empty session with nothing loaded yet.
func NewSession() *Session {
	return &Session{Breakpoints: make(map[int]bool)}
}

// Load reads a SILC image from path, replacing whatever is currently
// loaded, and positions the machine at the image's entry point.
func (s *Session) Load(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	img, err := silc.Read(f)
	if err != nil {
		return err
	}

	prog, err := interp.PreDecode(img.Code)
	if err != nil {
		return err
	}

	m := engine.NewMachine(img.Code, img.Data)
	m.PC = int(img.EntryPoint)

	s.Machine = m
	s.Program = prog
	return nil
}

// ConsoleReader runs the interactive liner REPL against sess until the
// user quits or aborts the prompt, mirroring a typical REPL dispatch loop.
func ConsoleReader(sess *Session) {
	line := liner.NewLiner()
	defer line.Close()

	line.SetCtrlCAborts(true)
	line.SetCompleter(func(line string) []string {
		return CompleteCmd(line)
	})

	for {
		command, err := line.Prompt("vsp> ")
		if err == nil {
			line.AppendHistory(command)
			quit, err := ProcessCommand(sess, command)
			if err != nil {
				fmt.Println("Error: " + err.Error())
			}
			if quit {
				return
			}
			continue
		}

		if errors.Is(err, liner.ErrPromptAborted) {
			return
		}
		slog.Error("error reading line: " + err.Error())
	}
}
