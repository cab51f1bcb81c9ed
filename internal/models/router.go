package models

// Router health values, polled and owned by the portal.
const (
	RouterHealthOK   = "ok"
	RouterHealthDown = "down"
)

// Router is a hotspot access point. API credentials are opaque to this
// service and pass through to the portal untouched.
type Router struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	IP       string `json:"ip"`
	Location string `json:"location"`
	APIUser  string `json:"api_user,omitempty"`
	APIPass  string `json:"api_pass,omitempty"`
	Health   string `json:"health"`
}

// Business is a hotspot operator, visible in super-admin scope.
type Business struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Status string `json:"status,omitempty"`
}
