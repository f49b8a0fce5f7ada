package dto

type RecommendationsRequest struct {
	ViewingHistory []string `json:"viewingHistory" binding:"required,min=1,dive,required"`
	Preferences    string   `json:"preferences"`
}

type SimilarRequest struct {
	Title string `json:"title" binding:"required"`
}

type RecommendationsResponse struct {
	Recommendations []string `json:"recommendations"`
}
