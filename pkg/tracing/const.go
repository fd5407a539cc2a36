package tracing

// Span attribute keys used by modaldb
const (
	AttrKeyErrorCode   = "modaldb.error.code"
	AttrKeyDocumentId  = "modaldb.document.id"
	AttrKeyDocumentCid = "modaldb.document.cid"
	AttrKeyStorePath   = "modaldb.store.path"
)
