package models

// Option is one entry of a selection list: the id to submit and the text to show.
// Group, when set, is the parent the option is listed under (the country of a city).
type Option struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Group string `json:"group,omitempty"`
}
