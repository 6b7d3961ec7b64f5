package main

// Input types for MCP tools. The SDK infers JSON Schema from these structs.
// Pointer types are optional; value types are required.

type emptyInput struct{}

type readerInput struct {
	Username *string `json:"username,omitempty" jsonschema:"Reader's username. If omitted uses the default user."`
}

type editionGetInput struct {
	Date     string  `json:"date"               jsonschema:"Edition date as YYYY-MM-DD (UTC)"`
	Username *string `json:"username,omitempty" jsonschema:"Reader's username. If omitted uses the default user."`
}

type printsListInput struct {
	Status   *string `json:"status,omitempty"   jsonschema:"PENDING or PUBLISHED. If omitted returns both."`
	Username *string `json:"username,omitempty" jsonschema:"Author's username. If omitted uses the default user."`
}

type printCreateInput struct {
	Title    string   `json:"title"              jsonschema:"Print title (max 200 characters)"`
	Content  string   `json:"content"            jsonschema:"Print body (max 10000 characters)"`
	Images   []string `json:"images,omitempty"   jsonschema:"Optional image URLs in display order"`
	Username *string  `json:"username,omitempty" jsonschema:"Author's username. If omitted uses the default user."`
}

type auditLogInput struct {
	Limit *int `json:"limit,omitempty" jsonschema:"Maximum number of entries to return (default 50)"`
}

type scheduleStatus struct {
	Enabled bool   `json:"enabled"`
	At      string `json:"at,omitempty"`
	NextRun string `json:"next_run,omitempty"`
}
