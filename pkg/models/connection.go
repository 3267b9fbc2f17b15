package models

// Connection is a directed edge declaring that completing Source leads to Target.
type Connection struct {
	Source string `json:"source"`
	Target string `json:"target"`
}
