package deezer

// searchResult is a single track entry in a Deezer search response.
// Only the fields the preview lookup needs are mapped.
type searchResult struct {
	ID      int64  `json:"id"`
	Title   string `json:"title"`
	Preview string `json:"preview"` // 30-second MP3 preview URL, may be empty
	Artist  struct {
		Name string `json:"name"`
	} `json:"artist"`
}

// searchResponse is the JSON response for /search.
type searchResponse struct {
	Data  []searchResult `json:"data"`
	Total int            `json:"total"`
}

// apiError represents a Deezer API error response.
type apiError struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
		Code    int    `json:"code"`
	} `json:"error"`
}
