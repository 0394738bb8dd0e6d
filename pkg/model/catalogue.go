package model

import (
	"fmt"
	"os"
	"strings"

	"attorneyvisit/pkg/sanitizer"

	"gopkg.in/yaml.v3"
)

var DefaultFacilities = []string{
	"Anna M. Kross Center (AMKC)",
	"Eric M. Taylor Center (EMTC)",
	"George R. Vierno Center (GRVC)",
	"North Infirmary Command (NIC)",
	"Otis Bantum Correctional Center (OBCC)",
	"Robert N. Davoren Complex (RNDC)",
	"Rose M. Singer Center (RMSC)",
	"Vernon C. Bain Center (VCBC)",
	"West Facility",
	"Manhattan Detention Complex (MDC)",
	"Bellevue Hospital Prison Ward",
	"Elmhurst Hospital Prison Ward",
}

// TimeSlots are the hourly visit windows. The lunch hour is not bookable.
var TimeSlots = []string{
	"08:00 AM - 09:00 AM",
	"09:00 AM - 10:00 AM",
	"10:00 AM - 11:00 AM",
	"11:00 AM - 12:00 PM",
	"01:00 PM - 02:00 PM",
	"02:00 PM - 03:00 PM",
	"03:00 PM - 04:00 PM",
	"04:00 PM - 05:00 PM",
}

var Durations = []string{"30", "60", "90"}

// Catalogue holds the choices offered by the wizard's select fields.
type Catalogue struct {
	Facilities []string `yaml:"facilities"`
	TimeSlots  []string `yaml:"timeSlots"`
	Durations  []string `yaml:"durations"`
}

func DefaultCatalogue() *Catalogue {
	return &Catalogue{
		Facilities: append([]string(nil), DefaultFacilities...),
		TimeSlots:  append([]string(nil), TimeSlots...),
		Durations:  append([]string(nil), Durations...),
	}
}

// LoadCatalogue reads a YAML file overriding any of the default lists. An
// empty path returns the defaults.
func LoadCatalogue(path string) (*Catalogue, error) {
	cat := DefaultCatalogue()
	if path == "" {
		return cat, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalogue %s: %w", path, err)
	}

	var override Catalogue
	if err := yaml.Unmarshal(data, &override); err != nil {
		return nil, fmt.Errorf("parse catalogue %s: %w", path, err)
	}

	if f := sanitizer.NormalizeFacilities(override.Facilities); len(f) > 0 {
		cat.Facilities = f
	}
	if s := sanitizer.NormalizeStringSlice(override.TimeSlots, sanitizer.TrimAndNormalize); len(s) > 0 {
		cat.TimeSlots = s
	}
	if d := sanitizer.NormalizeStringSlice(override.Durations, sanitizer.TrimAndNormalize); len(d) > 0 {
		cat.Durations = d
	}
	return cat, nil
}

// MatchFacility returns the catalogue spelling of name, compared
// case-insensitively.
func (c *Catalogue) MatchFacility(name string) (string, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", false
	}
	for _, f := range c.Facilities {
		if strings.EqualFold(f, name) {
			return f, true
		}
	}
	return "", false
}

func (c *Catalogue) HasTimeSlot(slot string) bool {
	return contains(c.TimeSlots, slot)
}

func (c *Catalogue) HasDuration(d string) bool {
	return contains(c.Durations, d)
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
