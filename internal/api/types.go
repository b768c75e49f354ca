// Package api provides common API types and responses.
package api

// RootResponse is the body of GET /
type RootResponse struct {
	Message string `json:"message" example:"Phone Registry API"`
	Version string `json:"version" example:"v0.1.0"`
	Docs    string `json:"docs" example:"/api/v1"`
}
