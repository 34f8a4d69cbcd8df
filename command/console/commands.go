/*
 * VSP core - Console command table.
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

package console

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/vsp-core/vsp/bytesil"
	"github.com/vsp-core/vsp/util/hex"
	"github.com/vsp-core/vsp/vsp/interp"
	"github.com/vsp-core/vsp/vsp/isa"
)

// formatByteSil renders one ByteSil the way regs/run print it.
func formatByteSil(b bytesil.ByteSil) string {
	var sb strings.Builder
	hex.FormatByteSil(&sb, b)
	return sb.String()
}

type cmd struct {
	name     string // Command name.
	min      int    // Minimum match size.
	process  func(*cmdLine, *Session) (bool, error)
	complete func(*cmdLine) []string
}

type cmdLine struct {
	line string // Current command.
	pos  int    // Position in line.
}

var cmdList = []cmd{
	{name: "load", min: 1, process: load},
	{name: "run", min: 1, process: run},
	{name: "step", min: 2, process: step},
	{name: "regs", min: 2, process: regs},
	{name: "state", min: 2, process: state},
	{name: "break", min: 2, process: setBreak},
	{name: "clear", min: 2, process: clearBreak},
	{name: "continue", min: 1, process: cont},
	{name: "disasm", min: 2, process: disasm},
	{name: "quit", min: 1, process: quit},
}

// ProcessCommand executes one command line against sess, returning true
// if the console should exit.
func ProcessCommand(sess *Session, commandLine string) (bool, error) {
	line := cmdLine{line: commandLine}
	command := line.getWord()

	match := matchList(command)
	if len(match) == 0 {
		return false, errors.New("command not found: " + command)
	}
	if len(match) > 1 {
		return false, errors.New("unique command not found: " + command)
	}

	return match[0].process(&line, sess)
}

// CompleteCmd is the liner tab-completion hook.
func CompleteCmd(commandLine string) []string {
	line := cmdLine{line: commandLine}
	name := line.getWord()

	if !line.isEOL() && line.line[line.pos] == ' ' {
		line.skipSpace()
		match := matchList(name)
		if len(match) == 0 || len(match) > 1 {
			return nil
		}
		if match[0].complete != nil {
			return match[0].complete(&line)
		}
		return nil
	}

	var matches []string
	for _, m := range cmdList {
		if name != "" && strings.HasPrefix(m.name, name) {
			matches = append(matches, m.name)
		}
	}
	return matches
}

// matchCommand reports whether command is a prefix of match.name at
// least match.min characters long.
func matchCommand(match cmd, command string) bool {
	if len(command) > len(match.name) {
		return false
	}
	l := 0
	for i := 0; i < len(command); i++ {
		l = i
		if match.name[l] != command[l] {
			return false
		}
	}
	return (l + 1) >= match.min
}

func matchList(command string) []cmd {
	if command == "" {
		return []cmd{}
	}
	var match []cmd
	for _, m := range cmdList {
		if matchCommand(m, command) {
			match = append(match, m)
		}
	}
	return match
}

func (line *cmdLine) skipSpace() {
	for line.pos < len(line.line) && unicode.IsSpace(rune(line.line[line.pos])) {
		line.pos++
	}
}

func (line *cmdLine) isEOL() bool {
	if line.pos >= len(line.line) {
		return true
	}
	return line.line[line.pos] == '#'
}

func (line *cmdLine) getNext() byte {
	line.pos++
	if line.isEOL() {
		return 0
	}
	return line.line[line.pos]
}

func (line *cmdLine) getPeek() byte {
	if (line.pos + 1) >= len(line.line) {
		return 0
	}
	return line.line[line.pos+1]
}

// getWord returns the next space-delimited token, lower-cased.
func (line *cmdLine) getWord() string {
	line.skipSpace()
	if line.isEOL() {
		return ""
	}

	value := ""
	by := line.line[line.pos]
	for {
		if unicode.IsSpace(rune(by)) || by == 0 || by == '#' {
			break
		}
		value += string(by)
		by = line.getNext()
		if line.isEOL() {
			break
		}
	}
	return strings.ToLower(value)
}

// getNumber reads the next token as an integer; "0x" prefixed tokens are
// hex, everything else decimal.
func (line *cmdLine) getNumber() (int, error) {
	tok := line.getWord()
	if tok == "" {
		return 0, errors.New("expected a number")
	}
	if strings.HasPrefix(tok, "0x") {
		v, err := strconv.ParseInt(tok[2:], 16, 64)
		return int(v), err
	}
	v, err := strconv.ParseInt(tok, 10, 64)
	return int(v), err
}

func needSession(sess *Session) error {
	if sess.Machine == nil || sess.Program == nil {
		return errors.New("no program loaded")
	}
	return nil
}

func load(line *cmdLine, sess *Session) (bool, error) {
	path, ok := line.parseQuoteString()
	if !ok || path == "" {
		return false, errors.New("usage: load <path>")
	}
	if err := sess.Load(path); err != nil {
		return false, err
	}
	fmt.Printf("loaded %s, entry at pc=%d\n", path, sess.Machine.PC)
	return false, nil
}

func run(_ *cmdLine, sess *Session) (bool, error) {
	if err := needSession(sess); err != nil {
		return false, err
	}
	r0, cycles, err := interp.Run(sess.Machine, sess.Program)
	if err != nil {
		return false, err
	}
	fmt.Printf("halted after %d cycles, r0=%s\n", cycles, formatByteSil(r0))
	return false, nil
}

func step(line *cmdLine, sess *Session) (bool, error) {
	if err := needSession(sess); err != nil {
		return false, err
	}
	count := 1
	if !line.isEOL() {
		n, err := line.getNumber()
		if err != nil {
			return false, err
		}
		count = n
	}
	for i := 0; i < count; i++ {
		halted, err := interp.Step(sess.Machine, sess.Program)
		if err != nil {
			return false, err
		}
		fmt.Printf("pc=%d cycle=%d\n", sess.Machine.PC, sess.Machine.CycleCount)
		if halted {
			fmt.Println("halted")
			break
		}
	}
	return false, nil
}

func regs(_ *cmdLine, sess *Session) (bool, error) {
	if err := needSession(sess); err != nil {
		return false, err
	}
	for i, r := range sess.Machine.Regs {
		fmt.Printf("R%-2d %s\n", i, formatByteSil(r))
	}
	return false, nil
}

func state(_ *cmdLine, sess *Session) (bool, error) {
	if err := needSession(sess); err != nil {
		return false, err
	}
	var sb strings.Builder
	layers := sess.Machine.State.Bytes()
	hex.FormatState(&sb, layers)
	fmt.Println(sb.String())
	return false, nil
}

func setBreak(line *cmdLine, sess *Session) (bool, error) {
	addr, err := line.getNumber()
	if err != nil {
		return false, err
	}
	sess.Breakpoints[addr] = true
	fmt.Printf("breakpoint set at pc=%d\n", addr)
	return false, nil
}

func clearBreak(line *cmdLine, sess *Session) (bool, error) {
	addr, err := line.getNumber()
	if err != nil {
		return false, err
	}
	delete(sess.Breakpoints, addr)
	fmt.Printf("breakpoint cleared at pc=%d\n", addr)
	return false, nil
}

func cont(_ *cmdLine, sess *Session) (bool, error) {
	if err := needSession(sess); err != nil {
		return false, err
	}
	for {
		halted, err := interp.Step(sess.Machine, sess.Program)
		if err != nil {
			return false, err
		}
		if halted {
			fmt.Printf("halted at pc=%d, cycle=%d\n", sess.Machine.PC, sess.Machine.CycleCount)
			return false, nil
		}
		if sess.Breakpoints[sess.Machine.PC] {
			fmt.Printf("breakpoint hit at pc=%d\n", sess.Machine.PC)
			return false, nil
		}
	}
}

func disasm(line *cmdLine, sess *Session) (bool, error) {
	if err := needSession(sess); err != nil {
		return false, err
	}
	addr := sess.Machine.PC
	if !line.isEOL() {
		n, err := line.getNumber()
		if err != nil {
			return false, err
		}
		addr = n
	}
	count := 8
	if !line.isEOL() {
		n, err := line.getNumber()
		if err != nil {
			return false, err
		}
		count = n
	}

	pc := addr
	code := sess.Machine.Code
	for i := 0; i < count && pc < len(code); i++ {
		inst, err := isa.Decode(code, pc)
		if err != nil {
			return false, err
		}
		marker := "  "
		if sess.Breakpoints[pc] {
			marker = "B "
		}
		fmt.Printf("%s%04d  %s\n", marker, pc, isa.Mnemonic(inst.Op))
		pc += inst.Len
	}
	return false, nil
}

func quit(_ *cmdLine, _ *Session) (bool, error) {
	return true, nil
}

// parseQuoteString reads a "quoted" or bare rest-of-line token: a load
// path may contain spaces if quoted.
func (line *cmdLine) parseQuoteString() (string, bool) {
	line.skipSpace()
	inQuote := false
	value := ""

	if line.isEOL() {
		return "", false
	}

	if line.line[line.pos] == '"' {
		inQuote = true
		line.pos++
	}

	for !line.isEOL() {
		by := line.line[line.pos]
		if by == '"' && inQuote {
			line.pos++
			return value, true
		}
		if !inQuote && unicode.IsSpace(rune(by)) {
			break
		}
		value += string(by)
		line.pos++
	}

	return value, !inQuote || value != ""
}
