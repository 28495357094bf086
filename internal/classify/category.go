package classify

import (
	"fmt"

	"github.com/Iron-Ham/conductor/internal/errors"
)

// Category is the kind of conductor action a line of simulator output
// reports. The set is closed; text that matches no known phrase is
// Unrecognized, which is an expected outcome rather than an error.
type Category int

const (
	// Unrecognized is the category for text that matches no known phrase.
	Unrecognized Category = iota

	// BellOn means the departure bell was switched on.
	BellOn
	// BellOff means the departure bell was switched off.
	BellOff

	// StopPositionOK means the conductor confirmed the stop position.
	StopPositionOK

	// DoorClose means the door switch was set to close, side unspecified.
	DoorClose
	// DoorOpen means the door switch was set to open, side unspecified.
	DoorOpen
	// SideLightOff means the side indicator light went out, side unspecified.
	SideLightOff
	// SideLightOn means the side indicator light came on, side unspecified.
	SideLightOn

	// DoorCloseRight is DoorClose for the right side in the direction of travel.
	DoorCloseRight
	// DoorOpenRight is DoorOpen for the right side in the direction of travel.
	DoorOpenRight
	// SideLightOffRight is SideLightOff for the right side.
	SideLightOffRight
	// SideLightOnRight is SideLightOn for the right side.
	SideLightOnRight

	// DoorCloseLeft is DoorClose for the left side in the direction of travel.
	DoorCloseLeft
	// DoorOpenLeft is DoorOpen for the left side in the direction of travel.
	DoorOpenLeft
	// SideLightOffLeft is SideLightOff for the left side.
	SideLightOffLeft
	// SideLightOnLeft is SideLightOn for the left side.
	SideLightOnLeft

	numCategories
)

// categoryNames are the snake_case names used in phrase files, event types
// and metric labels. Indexed by Category.
var categoryNames = [numCategories]string{
	Unrecognized:      "unrecognized",
	BellOn:            "bell_on",
	BellOff:           "bell_off",
	StopPositionOK:    "stop_position_ok",
	DoorClose:         "door_close",
	DoorOpen:          "door_open",
	SideLightOff:      "side_light_off",
	SideLightOn:       "side_light_on",
	DoorCloseRight:    "door_close_right",
	DoorOpenRight:     "door_open_right",
	SideLightOffRight: "side_light_off_right",
	SideLightOnRight:  "side_light_on_right",
	DoorCloseLeft:     "door_close_left",
	DoorOpenLeft:      "door_open_left",
	SideLightOffLeft:  "side_light_off_left",
	SideLightOnLeft:   "side_light_on_left",
}

// String returns the snake_case name of the category.
func (c Category) String() string {
	if c < 0 || c >= numCategories {
		return fmt.Sprintf("category(%d)", int(c))
	}
	return categoryNames[c]
}

// IsRecognized reports whether c is anything other than Unrecognized.
func (c Category) IsRecognized() bool {
	return c > Unrecognized && c < numCategories
}

// Side returns the side of the train the category refers to.
func (c Category) Side() Side {
	switch c {
	case DoorCloseRight, DoorOpenRight, SideLightOffRight, SideLightOnRight:
		return SideRight
	case DoorCloseLeft, DoorOpenLeft, SideLightOffLeft, SideLightOnLeft:
		return SideLeft
	default:
		return SideUnspecified
	}
}

// MarshalText implements encoding.TextMarshaler.
func (c Category) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Category) UnmarshalText(text []byte) error {
	parsed, err := ParseCategory(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// ParseCategory returns the category with the given snake_case name.
func ParseCategory(name string) (Category, error) {
	for i, n := range categoryNames {
		if n == name {
			return Category(i), nil
		}
	}
	return Unrecognized, fmt.Errorf("%w: %q", errors.ErrUnknownCategory, name)
}

// Categories returns every category, Unrecognized first.
func Categories() []Category {
	all := make([]Category, 0, numCategories)
	for c := Unrecognized; c < numCategories; c++ {
		all = append(all, c)
	}
	return all
}

// Side qualifies door and side-light categories.
type Side int

const (
	// SideUnspecified means the output did not say which side.
	SideUnspecified Side = iota
	// SideLeft is the left side in the direction of travel.
	SideLeft
	// SideRight is the right side in the direction of travel.
	SideRight
)

// String returns a human-readable string for the side.
func (s Side) String() string {
	switch s {
	case SideLeft:
		return "left"
	case SideRight:
		return "right"
	default:
		return "unspecified"
	}
}
