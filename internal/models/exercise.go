package models

import "strings"

// MuscleGroups are the filter chips offered by the exercise library.
var MuscleGroups = []string{"Chest", "Back", "Legs", "Shoulders", "Arms", "Core"}

// Exercise is a library entry that sets can be logged against.
type Exercise struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	MuscleGroup string `json:"muscleGroup,omitempty"`
	Equipment   string `json:"equipment,omitempty"`
	Notes       string `json:"notes,omitempty"`
	Bodyweight  bool   `json:"bodyweight,omitempty"`
}

// Normalize trims all text fields and assigns an ID when missing.
// Returns a ValidationError when the name is blank.
func (e *Exercise) Normalize() error {
	e.Name = strings.TrimSpace(e.Name)
	e.MuscleGroup = strings.TrimSpace(e.MuscleGroup)
	e.Equipment = strings.TrimSpace(e.Equipment)
	e.Notes = strings.TrimSpace(e.Notes)
	if e.Name == "" {
		return &ValidationError{Field: "name", Message: "Name is required"}
	}
	if e.ID == "" {
		e.ID = NewID()
	}
	return nil
}

// FilterExercises returns the exercises whose name contains search
// (case-insensitive) and whose muscle group equals group. An empty search
// or a group of "" / "All" matches everything.
func FilterExercises(list []Exercise, search, group string) []Exercise {
	search = strings.ToLower(strings.TrimSpace(search))
	group = strings.TrimSpace(group)
	out := make([]Exercise, 0, len(list))
	for _, ex := range list {
		if search != "" && !strings.Contains(strings.ToLower(ex.Name), search) {
			continue
		}
		if group != "" && !strings.EqualFold(group, "All") && !strings.EqualFold(ex.MuscleGroup, group) {
			continue
		}
		out = append(out, ex)
	}
	return out
}
