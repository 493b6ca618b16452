package constant

const (
	ChatMessageRoleUser      = "user"
	ChatMessageRoleAssistant = "assistant"
	ChatMessageRoleSystem    = "system"

	// Sessions carry this title until the first exchange provides one.
	ChatSessionDefaultTitle = "Unnamed session"
	ChatSessionTitleMaxLen  = 80

	DocumentStatusPending = "PENDING"
	DocumentStatusReady   = "READY"
	DocumentStatusFailed  = "FAILED"

	DocumentLanguageArabic  = "ar"
	DocumentLanguageEnglish = "en"

	// Ingestion chunking: 1500 chars per chunk with 200 overlap keeps each
	// chunk well inside embedding context limits.
	IngestChunkSize    = 1500
	IngestChunkOverlap = 200

	// Ollama configuration
	OllamaDefaultBaseURL = "http://localhost:11434"
	OllamaDefaultModel   = "llama3.1:8b"
)
