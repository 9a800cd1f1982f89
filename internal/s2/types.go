// Package s2 provides a client for the Semantic Scholar Academic Graph API.
package s2

// Paper represents a paper from the Semantic Scholar API.
type Paper struct {
	PaperID     string      `json:"paperId"`
	ExternalIDs ExternalIDs `json:"externalIds,omitempty"`
	Title       string      `json:"title"`
	Abstract    string      `json:"abstract,omitempty"`
	Authors     []Author    `json:"authors,omitempty"`
	Year        int         `json:"year,omitempty"`
	Venue       string      `json:"venue,omitempty"`
	URL         string      `json:"url,omitempty"`
	Citations   int         `json:"citationCount,omitempty"`
}

// ExternalIDs contains external identifiers for a paper.
type ExternalIDs struct {
	DOI   string `json:"DOI,omitempty"`
	ArXiv string `json:"ArXiv,omitempty"`
}

// Author represents an author from the Semantic Scholar API.
type Author struct {
	AuthorID string `json:"authorId,omitempty"`
	Name     string `json:"name"`
}

// searchResponse is the body of /paper/search.
type searchResponse struct {
	Total int     `json:"total"`
	Data  []Paper `json:"data"`
}

// referencesResponse is the body of /paper/{id}/references.
type referencesResponse struct {
	Data []struct {
		CitedPaper *Paper `json:"citedPaper"`
	} `json:"data"`
}
