package models

// AnalysisRequest is the single request type the frontend sends
type AnalysisRequest struct {
	ImageBase64 string `json:"imageBase64"`
}

// AnalysisResponse wraps a successful identification
type AnalysisResponse struct {
	Monument *MonumentRecord `json:"monument"`
}

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthResponse is returned by the health endpoint
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Time    string `json:"time"`
}
