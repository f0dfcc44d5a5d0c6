/*
 Licensed under the Apache License, Version 2.0 (the "License");
 you may not use this file except in compliance with the License.
 You may obtain a copy of the License at

     https://www.apache.org/licenses/LICENSE-2.0

 Unless required by applicable law or agreed to in writing, software
 distributed under the License is distributed on an "AS IS" BASIS,
 WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 See the License for the specific language governing permissions and
 limitations under the License.
*/

package control

import (
	"fmt"
	"time"
)

// Command is one of the types below. The set is closed, the runner
// handles every type in a single type switch.
type Command interface {
	isCommand()
	fmt.Stringer
}

// RunCommand starts auto mode with the given time between blocks
type RunCommand struct {
	IntervalMs int `json:"intervalMs"`
}

// StopCommand ends auto mode
type StopCommand struct{}

// UpdateStatusCommand refreshes enq, about, range and time
type UpdateStatusCommand struct{}

type SetTimeCommand struct {
	Time time.Time `json:"time"`
}

type SetRangeCommand struct {
	Center int `json:"center"`
}

type SetStandByCommand struct {
	StandBy bool `json:"standBy"`
}

func (RunCommand) isCommand()          {}
func (StopCommand) isCommand()         {}
func (UpdateStatusCommand) isCommand() {}
func (SetTimeCommand) isCommand()      {}
func (SetRangeCommand) isCommand()     {}
func (SetStandByCommand) isCommand()   {}

func (c RunCommand) String() string {
	return fmt.Sprintf("RUN { intervalMs: %d }", c.IntervalMs)
}

func (StopCommand) String() string {
	return "STOP"
}

func (UpdateStatusCommand) String() string {
	return "UPDATE-STATUS"
}

func (c SetTimeCommand) String() string {
	return fmt.Sprintf("SET-TIME { time: %s }", c.Time.UTC().Format(time.RFC3339))
}

func (c SetRangeCommand) String() string {
	return fmt.Sprintf("SET-RANGE { center: %d }", c.Center)
}

func (c SetStandByCommand) String() string {
	return fmt.Sprintf("SET-STAND-BY { standBy: %t }", c.StandBy)
}
