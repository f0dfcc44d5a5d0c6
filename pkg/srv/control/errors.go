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
)

// ErrQueueFull returned when the runner has too many pending commands
type ErrQueueFull struct {
	Command string
}

func (e ErrQueueFull) Error() string {
	return fmt.Sprintf("Command queue is full, dropping %s", e.Command)
}

// ErrInvalidCommand returned when command arguments are out of range
type ErrInvalidCommand struct {
	What string
}

func (e ErrInvalidCommand) Error() string {
	return fmt.Sprintf("Invalid command: %s", e.What)
}

// ErrUnknownCommand returned when the runner gets a command it does not handle
type ErrUnknownCommand struct {
	Command string
}

func (e ErrUnknownCommand) Error() string {
	return fmt.Sprintf("Unknown command: %s", e.Command)
}
