/*
 * VSP core - Debug tracing.
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

package debug

import (
	"fmt"
	"os"

	config "github.com/vsp-core/vsp/config/configparser"
	"github.com/vsp-core/vsp/orchestrator"
)

var logFile *os.File

// Debugf is a generic mask-gated debug message, used by packages with no
// natural component or stage identity (isa, silc, jsil, aot, ...).
func Debugf(module string, mask int, level int, format string, a ...interface{}) {
	if (mask & level) != 0 {
		fmt.Fprintf(logFile, module+": "+format+"\n", a...)
	}
}

// DebugComponentf logs against an orchestrator component id (VSP
// components are named, not addressed by device number).
func DebugComponentf(id string, mask int, level int, format string, a ...interface{}) {
	if (mask & level) != 0 {
		fmt.Fprintf(logFile, id+": "+format+"\n", a...)
	}
}

// DebugStagef logs against a pipeline stage.
func DebugStagef(stage orchestrator.Stage, mask int, level int, format string, a ...interface{}) {
	if (mask & level) != 0 {
		fmt.Fprintf(logFile, stage.String()+": "+format+"\n", a...)
	}
}

// register a debug-file sink on initialize.
func init() {
	config.RegisterFile("DEBUGFILE", create)
}

// create opens the named debug log file; DEBUGFILE is a config-only
// sink, so it registers no orchestrator.Component.
func create(_ uint16, fileName string, _ []config.Option) (orchestrator.Component, error) {
	if logFile != nil {
		return nil, fmt.Errorf("can't have more than one debug file, previous: %s", logFile.Name())
	}

	file, err := os.Create(fileName)
	if err != nil {
		return nil, fmt.Errorf("unable to create debug file: %s", fileName)
	}

	logFile = file
	return nil, nil
}
