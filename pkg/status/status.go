// Package status talks to the unit's HTTP status resource: a single JSON
// message living at /status under the API root, readable with GET and
// replaceable with PUT. The package also ships a host-side simulator of
// the resource for development without hardware.
package status

// Status is the wire representation of the status resource.
type Status struct {
	Message string `json:"message"`
}

// resourcePath is the status resource relative to the API base URL.
const resourcePath = "/status"
