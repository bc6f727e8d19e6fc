package models

// Resource is a downloadable file listed on the resources tab.
type Resource struct {
	Name string `json:"name"`
	Href string `json:"href"`
}
