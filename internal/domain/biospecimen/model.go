// Package biospecimen is the client side of the retrieval-augmented question
// answering backend: a status probe, a query call and the result types they
// exchange. The retrieval and generation logic lives in the backend.
package biospecimen

// SystemStatus is the backend readiness as seen by the query view. It moves
// from StatusChecking to StatusReady or StatusError once, on the first probe.
type SystemStatus string

const (
	StatusChecking SystemStatus = "checking"
	StatusReady    SystemStatus = "ready"
	StatusError    SystemStatus = "error"
)

// QueryRequest is the body posted to the query endpoint.
type QueryRequest struct {
	Question   string `json:"question"`
	TopResults int    `json:"top_results,omitempty"`
}

// QueryResult is the backend's answer plus its ranked supporting snippets.
type QueryResult struct {
	Answer         string   `json:"answer"`
	Sources        []Source `json:"sources"`
	ProcessingTime string   `json:"processing_time,omitempty"`
}

// Source is one supporting snippet. Similarity is in [0,1].
type Source struct {
	Content    string         `json:"content"`
	Similarity float64        `json:"similarity"`
	Metadata   SourceMetadata `json:"metadata"`
}

type SourceMetadata struct {
	SampleType  string `json:"sample_type,omitempty"`
	PrimarySite string `json:"primary_site,omitempty"`
}
