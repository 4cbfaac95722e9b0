package core

// Provider identifies an extraction strategy.
type Provider string

const (
	// ProviderNative extracts embedded text without OCR.
	ProviderNative Provider = "native"
	// ProviderStandardOCR is the default-tier REST OCR service.
	ProviderStandardOCR Provider = "standard-ocr"
	// ProviderVisionOCR is the premium tier for handwritten/complex scans.
	ProviderVisionOCR Provider = "vision-ocr"
)

// RoutingDecision is the upfront choice of extraction strategy for one
// document. Created once per pipeline run, then immutable.
type RoutingDecision struct {
	IsNativePDF bool     `json:"is_native_pdf"`
	PageCount   int      `json:"page_count"`
	Provider    Provider `json:"provider"`
	Confidence  float64  `json:"confidence"` // classifier certainty in [0,1]
	Reason      string   `json:"reason"`     // human-readable, for logs only
	VisionLabel string   `json:"vision_label,omitempty"`
}

// ExtractedTable is a rectangular table pulled out of a page.
// RowCount == len(Rows); ColumnCount == len(Rows[0]) (0 when empty).
type ExtractedTable struct {
	Rows        [][]string `json:"rows"`
	Markdown    string     `json:"markdown"`
	RowCount    int        `json:"row_count"`
	ColumnCount int        `json:"column_count"`
}

// PageContent is one physical page as emitted by a normalizer.
// PageNumber is 1-based and strictly increasing within a document.
type PageContent struct {
	PageNumber int              `json:"page_number"`
	TextBlocks []string         `json:"text_blocks"`
	Tables     []ExtractedTable `json:"tables"`
}

// NormalizedDocument is the uniform output of every extraction backend.
type NormalizedDocument struct {
	Pages            []PageContent `json:"pages"`
	Provider         Provider      `json:"provider"`
	TotalPages       int           `json:"total_pages"`
	ProcessingTimeMs int64         `json:"processing_time_ms"`
	ConfidenceScore  float64       `json:"confidence_score"` // 0-100
}

// SourceDocument carries the raw bytes handed to a normalizer.
type SourceDocument struct {
	URL      string
	Data     []byte
	MimeType string
}

// ChunkType distinguishes prose chunks from table chunks.
type ChunkType string

const (
	ChunkText  ChunkType = "text"
	ChunkTable ChunkType = "table"
)

// ChunkMetadata describes where a chunk came from.
// ChunkIndex is a single global counter across the whole document,
// zero-based and contiguous in emission order.
type ChunkMetadata struct {
	PageNumber        int    `json:"page_number"`
	ChunkIndex        int    `json:"chunk_index"`
	TotalChunksInPage int    `json:"total_chunks_in_page"`
	IsTable           bool   `json:"is_table"`
	TableIndex        int    `json:"table_index,omitempty"`
	TableDescription  string `json:"table_description,omitempty"`
}

// DocumentChunk is a bounded slice of document content. A chunk with
// Children is a parent window; only children (and childless chunks) are
// embedded.
type DocumentChunk struct {
	ID       string          `json:"id"`
	Content  string          `json:"content"`
	Type     ChunkType       `json:"type"`
	Metadata ChunkMetadata   `json:"metadata"`
	Children []DocumentChunk `json:"children,omitempty"`
}

// VectorizedChunk pairs a chunk with its embedding, preserving the
// parent/child shape. Parent-only nodes carry an empty vector; leaves carry
// the vector actually embedded.
type VectorizedChunk struct {
	ID       string            `json:"id"`
	Content  string            `json:"content"`
	Type     ChunkType         `json:"type"`
	Metadata ChunkMetadata     `json:"metadata"`
	Vector   []float32         `json:"vector"`
	Children []VectorizedChunk `json:"children,omitempty"`
}
