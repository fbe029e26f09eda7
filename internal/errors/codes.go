package errors

// Error codes, grouped by taxonomy kind. Frontends may surface these
// verbatim; they are stable identifiers, not user-facing prose.
const (
	CodeCollectionNotFound = "ERR_NOTFOUND_COLLECTION"
	CodeDocumentNotFound   = "ERR_NOTFOUND_DOCUMENT"
	CodeModelNotFound      = "ERR_NOTFOUND_MODEL"

	CodeDuplicateCollection = "ERR_VALIDATION_DUPLICATE_COLLECTION"
	CodeInvalidGlob         = "ERR_VALIDATION_INVALID_GLOB"
	CodeInvalidVirtualPath  = "ERR_VALIDATION_INVALID_VIRTUAL_PATH"

	CodeProviderError  = "ERR_TRANSIENT_PROVIDER"
	CodeProviderNilResp = "ERR_TRANSIENT_NIL_RESPONSE"

	CodeVecTableMissing    = "ERR_STATE_VEC_TABLE_MISSING"
	CodeDimensionMismatch  = "ERR_STATE_DIMENSION_MISMATCH"
	CodeEmptyFTSQuery      = "ERR_STATE_EMPTY_FTS_QUERY"

	CodeStoreOpenFailed = "ERR_FATAL_STORE_OPEN"
	CodeMigrationFailed = "ERR_FATAL_MIGRATION"
)
