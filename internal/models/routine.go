package models

import "strings"

// Routine is a named, ordered template of exercises used to pre-populate a
// session. ExerciseIDs may contain duplicates.
type Routine struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	ExerciseIDs []string `json:"exerciseIds"`
}

// Normalize trims the name and assigns an ID when missing.
func (r *Routine) Normalize() error {
	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		return &ValidationError{Field: "name", Message: "Name is required"}
	}
	if len(r.ExerciseIDs) == 0 {
		return &ValidationError{Field: "exerciseIds", Message: "Select at least one exercise"}
	}
	if r.ID == "" {
		r.ID = NewID()
	}
	return nil
}

// ExerciseNames resolves the routine's exercise IDs against a catalog,
// substituting "Unknown" for IDs that no longer exist.
func (r Routine) ExerciseNames(catalog []Exercise) []string {
	byID := make(map[string]string, len(catalog))
	for _, ex := range catalog {
		byID[ex.ID] = ex.Name
	}
	names := make([]string, 0, len(r.ExerciseIDs))
	for _, id := range r.ExerciseIDs {
		name, ok := byID[id]
		if !ok {
			name = "Unknown"
		}
		names = append(names, name)
	}
	return names
}
