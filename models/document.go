package models

// DocumentInfo describes one file in the documents directory.
type DocumentInfo struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
}

// DocumentListResponse is the structure for the response of the GET /documents endpoint.
type DocumentListResponse struct {
	Count     int            `json:"count"`
	Documents []DocumentInfo `json:"documents"`
}
