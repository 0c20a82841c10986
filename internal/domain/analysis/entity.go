package analysis

// Document is one user-supplied transcript file. It is consumed exactly once
// by a batch run and never persisted.
type Document struct {
	Name      string
	Content   []byte
	MediaType string
}

// Result is the backend's verdict for a single transcript. The backend either
// embeds the rubric matrix directly, or returns an AnalysisID that has to be
// resolved with a second fetch.
type Result struct {
	FileName   string      `json:"file_name"`
	AnalysisID string      `json:"analysis_id,omitempty"`
	Matrix     [][]float64 `json:"matrix,omitempty"`
	RowLabels  []string    `json:"row_labels,omitempty"`
}

// HasMatrix reports whether the result carries scores inline.
func (r *Result) HasMatrix() bool { return len(r.Matrix) > 0 }
