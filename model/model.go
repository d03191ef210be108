package model

import "time"

// Selection is a value picked in one of the search form dropdowns. Text is the
// exact option label, Search is what gets typed to filter the option list.
type Selection struct {
	Text   string `mapstructure:"text"`
	Search string `mapstructure:"search"`
}

type Search struct {
	Name                 string    `mapstructure:"name"`
	Municipality         Selection `mapstructure:"municipality"`
	Practitioner         Selection `mapstructure:"practitioner"`
	Service              Selection `mapstructure:"service"`
	TargetResultText     string    `mapstructure:"target_result_text"`
	EarliestDate         bool      `mapstructure:"earliest_date"`
	DaysAhead            int       `mapstructure:"days_ahead"`
	ExcludeOrganizations []string  `mapstructure:"exclude_organizations"`
}

// Label is what gets reported for the search in logs and notifications.
func (s Search) Label() string {
	if !s.EarliestDate {
		return s.TargetResultText
	}
	if s.Service.Search != "" {
		return s.Service.Search
	}
	return s.Service.Text
}

// DisplayName falls back to the label when no name was configured.
func (s Search) DisplayName() string {
	if s.Name != "" {
		return s.Name
	}
	return s.Label()
}

type Outcome struct {
	Search    string
	Found     bool
	Label     string
	Date      string
	CheckedAt time.Time
	Err       error
}
