package types

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidVehicle is returned when a vehicle descriptor is not well-formed.
var ErrInvalidVehicle = errors.New("invalid vehicle")

// Year bounds accepted by Vehicle.Validate.
const (
	MinVehicleYear = 1886
	MaxVehicleYear = 9999
)

type Vehicle struct {
	Make  string `json:"make" yaml:"make"`
	Model string `json:"model" yaml:"model"`
	Year  int    `json:"year" yaml:"year"`
}

// Validate checks the shape of the descriptor only. Whether the
// make/model/year exists is the vehicle catalog's concern.
func (v Vehicle) Validate() error {
	if strings.TrimSpace(v.Make) == "" {
		return fmt.Errorf("%w: make is required", ErrInvalidVehicle)
	}
	if strings.TrimSpace(v.Model) == "" {
		return fmt.Errorf("%w: model is required", ErrInvalidVehicle)
	}
	if v.Year < MinVehicleYear || v.Year > MaxVehicleYear {
		return fmt.Errorf("%w: year %d out of range [%d, %d]",
			ErrInvalidVehicle, v.Year, MinVehicleYear, MaxVehicleYear)
	}
	return nil
}

func (v Vehicle) String() string {
	return fmt.Sprintf("%d %s %s", v.Year, v.Make, v.Model)
}
