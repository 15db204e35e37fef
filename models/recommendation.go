package models

// Recommendation pairs a title suggested for a vibe with the metadata record
// it resolved to.
type Recommendation struct {
	Suggested string  `json:"suggested"`
	Score     float64 `json:"score"`
	Title     Title   `json:"title"`
}

// RecommendationResponse is returned by the recommendations endpoint.
type RecommendationResponse struct {
	Vibe  string           `json:"vibe"`
	Items []Recommendation `json:"items"`
}
