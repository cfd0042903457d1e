package reservation

import "fmt"

// RideType distinguishes a single seat from hiring the whole vehicle.
type RideType string

const (
	RideTypeSeat         RideType = "seat"
	RideTypeWholeVehicle RideType = "whole_vehicle"
)

// rideTypeLabels maps ride types to the labels shown on the choice keyboard.
var rideTypeLabels = map[RideType]string{
	RideTypeSeat:         "🚗 Место в машине",
	RideTypeWholeVehicle: "🚘 Вся машина",
}

// IsValid returns true if the ride type is recognized.
func (t RideType) IsValid() bool {
	_, exists := rideTypeLabels[t]
	return exists
}

// DisplayLabel returns the user-facing label for the ride type.
func (t RideType) DisplayLabel() string {
	if label, ok := rideTypeLabels[t]; ok {
		return label
	}
	return string(t)
}

// String returns the string representation of the ride type.
func (t RideType) String() string {
	return string(t)
}

// ParseRideType converts a string to a RideType, returning an error if invalid.
func ParseRideType(s string) (RideType, error) {
	t := RideType(s)
	if !t.IsValid() {
		return "", fmt.Errorf("invalid ride type: %s", s)
	}
	return t, nil
}

// RideTypeFromLabel resolves a keyboard label to a ride type. The match is
// exact: anything off the two-button keyboard is rejected.
func RideTypeFromLabel(label string) (RideType, bool) {
	for t, l := range rideTypeLabels {
		if l == label {
			return t, true
		}
	}
	return "", false
}

// RideTypeLabels returns the choice-set labels in keyboard order.
func RideTypeLabels() []string {
	return []string{
		rideTypeLabels[RideTypeSeat],
		rideTypeLabels[RideTypeWholeVehicle],
	}
}
