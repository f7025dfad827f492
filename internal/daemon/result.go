// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package daemon

// StartOutcome is what Start did.
type StartOutcome int

const (
	// Started means a background child was forked.
	Started StartOutcome = iota + 1
	// AlreadyRunning means a pid record was already held; nothing changed.
	AlreadyRunning
	// Served means this process was the child and the service has returned.
	Served
)

func (o StartOutcome) String() string {
	switch o {
	case Started:
		return "started"
	case AlreadyRunning:
		return "already_running"
	case Served:
		return "served"
	default:
		return "unknown"
	}
}

// StartResult is the outcome of Start.
type StartResult struct {
	Outcome StartOutcome
	PID     int
}

// StopOutcome is what Stop did.
type StopOutcome int

const (
	// Stopped means the interrupt was delivered.
	Stopped StopOutcome = iota + 1
	// NotRunning means there was no record, or no process behind it.
	NotRunning
	// SignalFailed means the process could not be signalled. The record
	// was still cleared.
	SignalFailed
)

func (o StopOutcome) String() string {
	switch o {
	case Stopped:
		return "stopped"
	case NotRunning:
		return "not_running"
	case SignalFailed:
		return "signal_failed"
	default:
		return "unknown"
	}
}

// StopResult is the outcome of Stop.
type StopResult struct {
	Outcome StopOutcome
	PID     int
	// Warning is the delivery error when Outcome is SignalFailed.
	Warning error
}

// RestartResult pairs the stop and start halves of Restart.
type RestartResult struct {
	Stop StopResult
	// StopErr is set when the stop half failed. The start still ran.
	StopErr error
	Start   StartResult
}

// Status is the pid record as seen by status.
type Status struct {
	Running bool   `json:"running"`
	PID     int    `json:"pid,omitempty"`
	PIDFile string `json:"pid_file"`
}
