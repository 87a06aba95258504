// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package lock

import "fmt"

// State is the device state. The set is closed: Idle through Success.
type State uint8

const (
	StateIdle             State = iota // no unlock code stored
	StateRecordingCode                 // capturing the reference gesture
	StateReady                         // unlock code set, waiting for input
	StateRecordingAttempt              // capturing an unlock attempt
	StateFailed                        // last attempt did not match
	StateSuccess                       // last attempt matched
)

var stateNames = [...]string{
	StateIdle:             "idle",
	StateRecordingCode:    "recording_code",
	StateReady:            "ready",
	StateRecordingAttempt: "recording_attempt",
	StateFailed:           "failed",
	StateSuccess:          "success",
}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("state(%d)", uint8(s))
}

// MarshalText encodes the state by name so MQTT payloads stay readable.
func (s State) MarshalText() ([]byte, error) {
	if int(s) >= len(stateNames) {
		return nil, fmt.Errorf("lock: invalid state %d", uint8(s))
	}
	return []byte(stateNames[s]), nil
}

// UnmarshalText decodes a state name.
func (s *State) UnmarshalText(b []byte) error {
	for i, name := range stateNames {
		if name == string(b) {
			*s = State(i)
			return nil
		}
	}
	return fmt.Errorf("lock: unknown state %q", b)
}

// Indicator is what the device shows to the user.
type Indicator uint8

const (
	IndicatorOff       Indicator = iota
	IndicatorRecording           // recording LED on
	IndicatorReady               // blue
	IndicatorEntering            // yellow
	IndicatorFailed              // red
	IndicatorSuccess             // green
)

var indicatorNames = [...]string{
	IndicatorOff:       "off",
	IndicatorRecording: "recording",
	IndicatorReady:     "ready",
	IndicatorEntering:  "entering",
	IndicatorFailed:    "failed",
	IndicatorSuccess:   "success",
}

func (i Indicator) String() string {
	if int(i) < len(indicatorNames) {
		return indicatorNames[i]
	}
	return fmt.Sprintf("indicator(%d)", uint8(i))
}

// indicatorFor is the entry action of each state.
func indicatorFor(s State) Indicator {
	switch s {
	case StateRecordingCode:
		return IndicatorRecording
	case StateReady:
		return IndicatorReady
	case StateRecordingAttempt:
		return IndicatorEntering
	case StateFailed:
		return IndicatorFailed
	case StateSuccess:
		return IndicatorSuccess
	default:
		return IndicatorOff
	}
}

// Button identifies one of the two inputs.
type Button uint8

const (
	ButtonLeft  Button = iota // record a new code / stop recording it
	ButtonRight               // attempt an unlock / stop the attempt
)

func (b Button) String() string {
	switch b {
	case ButtonLeft:
		return "left"
	case ButtonRight:
		return "right"
	default:
		return fmt.Sprintf("button(%d)", uint8(b))
	}
}

// ParseButton maps "left"/"right" to a Button.
func ParseButton(name string) (Button, error) {
	switch name {
	case "left":
		return ButtonLeft, nil
	case "right":
		return ButtonRight, nil
	}
	return 0, fmt.Errorf("lock: unknown button %q", name)
}

func (b Button) MarshalText() ([]byte, error) {
	switch b {
	case ButtonLeft, ButtonRight:
		return []byte(b.String()), nil
	}
	return nil, fmt.Errorf("lock: invalid button %d", uint8(b))
}

func (b *Button) UnmarshalText(text []byte) error {
	v, err := ParseButton(string(text))
	if err != nil {
		return err
	}
	*b = v
	return nil
}
