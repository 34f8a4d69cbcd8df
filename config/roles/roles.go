/*
 * VSP core - Built-in component role registrations.
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

// Package roles registers the built-in component roles a deployment
// config file can name: PROGRAM (a VSP bytecode program run each
// Process stage) and NETNODE (a TCP state-exchange peer for the Network
// stage). Importing this package for side effects, the way cmd/vspctl
// does, is what makes those roles available to LoadConfigFile.
package roles

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	config "github.com/vsp-core/vsp/config/configparser"
	"github.com/vsp-core/vsp/orchestrator"
	"github.com/vsp-core/vsp/orchestrator/netnode"
	"github.com/vsp-core/vsp/silc"
)

// register the built-in roles on initialize.
func init() {
	config.RegisterModel("PROGRAM", config.TypeModel, createProgram)
	config.RegisterModel("NETNODE", config.TypeModel, createNetnode)
}

// parseMask reads a 16-bit hex layer mask option value.
func parseMask(name, s string) (uint16, error) {
	if s == "" {
		return 0, errors.New("option " + name + " requires a hex mask value")
	}
	v, err := strconv.ParseUint(s, 16, 16)
	if err != nil {
		return 0, fmt.Errorf("option %s: bad mask %q: %w", name, s, err)
	}
	return uint16(v), nil
}

// Create a PROGRAM component:
//
//	PROGRAM <id> code=<image.silc> [reads=<hexmask>] [writes=<hexmask>]
func createProgram(_ uint16, value string, options []config.Option) (orchestrator.Component, error) {
	path := ""
	var reads, writes uint16
	var err error
	for _, option := range options {
		switch strings.ToLower(option.Name) {
		case "code":
			path = option.EqualOpt
		case "reads":
			reads, err = parseMask(option.Name, option.EqualOpt)
		case "writes":
			writes, err = parseMask(option.Name, option.EqualOpt)
		default:
			return nil, errors.New("Unknown PROGRAM option: " + option.Name)
		}
		if err != nil {
			return nil, err
		}
	}
	if path == "" {
		return nil, errors.New("PROGRAM " + value + " requires code=<image.silc>")
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("PROGRAM %s: %w", value, err)
	}
	defer f.Close()
	img, err := silc.Read(f)
	if err != nil {
		return nil, fmt.Errorf("PROGRAM %s: %w", value, err)
	}

	return orchestrator.NewVSPProgramComponent("program-"+value, reads, writes, img.Code, img.Data)
}

// Create a NETNODE component:
//
//	NETNODE <id> addr=<host:port> [reads=<hexmask>] [writes=<hexmask>]
func createNetnode(_ uint16, value string, options []config.Option) (orchestrator.Component, error) {
	addr := ""
	var reads, writes uint16
	var err error
	for _, option := range options {
		switch strings.ToLower(option.Name) {
		case "addr":
			addr = option.EqualOpt
		case "reads":
			reads, err = parseMask(option.Name, option.EqualOpt)
		case "writes":
			writes, err = parseMask(option.Name, option.EqualOpt)
		default:
			return nil, errors.New("Unknown NETNODE option: " + option.Name)
		}
		if err != nil {
			return nil, err
		}
	}
	if addr == "" {
		return nil, errors.New("NETNODE " + value + " requires addr=<host:port>")
	}

	return netnode.Listen("netnode-"+value, addr, reads, writes)
}
