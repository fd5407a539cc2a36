package mdbapi

import (
	"fmt"

	"github.com/serum-errors/go-serum"
)

const (
	ECodeNoSuchItem       = "modaldb-error-no-such-item"
	ECodeItemReadOnly     = "modaldb-error-item-readonly"
	ECodeNoChildTypes     = "modaldb-error-no-childtypes"
	ECodeChildAmbiguous   = "modaldb-error-childtype-ambiguous"
	ECodeChildTypeInvalid = "modaldb-error-childtype-invalid"
	ECodeRefInvalid       = "modaldb-error-reference-invalid"
	ECodeNoSuchChild      = "modaldb-error-no-such-child"
	ECodeIo               = "modaldb-error-io"
	ECodeSerialization    = "modaldb-error-serialization"
	ECodeDocumentParse    = "modaldb-error-document-parse"
	ECodeDocumentInvalid  = "modaldb-error-document-invalid"
	ECodeSchemaInvalid    = "modaldb-error-schema-invalid"
	ECodeMissing          = "modaldb-error-missing"
	ECodeInternal         = "modaldb-error-internal"
	ECodeUnknown          = "modaldb-error-unknown"
)

// ErrorUnknown is returned when an unknown error occurs
//
// Errors:
//
//    - modaldb-error-unknown --
func ErrorUnknown(msgTmpl string, cause error) error {
	return serum.Errorf(ECodeUnknown, "%s: %w", msgTmpl, cause)
}

// ErrorInternal is for miscellaneous errors that should be handled internally.
// In most cases, prefer to use more specific errors.
//
// Errors:
//
//    - modaldb-error-internal --
func ErrorInternal(msgTmpl string, cause error) error {
	return serum.Errorf(ECodeInternal, "%s: %w", msgTmpl, cause)
}

// ErrorNoSuchItem is returned by item store operations given a key outside
// the store's declared key set.
//
// Errors:
//
//    - modaldb-error-no-such-item --
func ErrorNoSuchItem(key ItemKey) error {
	return serum.Error(ECodeNoSuchItem,
		serum.WithMessageTemplate("no such item: {{key|q}}"),
		serum.WithDetail("key", string(key)),
	)
}

// ErrorItemReadOnly is returned when setting a disk item whose schema declares
// no save func.
//
// Errors:
//
//    - modaldb-error-item-readonly --
func ErrorItemReadOnly(key ItemKey) error {
	return serum.Error(ECodeItemReadOnly,
		serum.WithMessageTemplate("item {{key|q}} is read-only: schema declares no save func"),
		serum.WithDetail("key", string(key)),
	)
}

// ErrorNoChildTypes is returned when child operations are attempted on a
// parent whose schema declares no child types.
//
// Errors:
//
//    - modaldb-error-no-childtypes --
func ErrorNoChildTypes(parentID string) error {
	return serum.Error(ECodeNoChildTypes,
		serum.WithMessageTemplate("no child types declared in schema; child operations on {{parentId|q}} are illegal"),
		serum.WithDetail("parentId", parentID),
	)
}

// ErrorChildAmbiguous is returned when a reference omits the child type but
// the parent declares more than one.
//
// Errors:
//
//    - modaldb-error-childtype-ambiguous --
func ErrorChildAmbiguous(parentID string, declared int) error {
	return serum.Error(ECodeChildAmbiguous,
		serum.WithMessageTemplate("parent {{parentId|q}} declares {{declared}} child types; the reference must name one"),
		serum.WithDetail("parentId", parentID),
		serum.WithDetail("declared", fmt.Sprintf("%d", declared)),
	)
}

// ErrorChildTypeInvalid is returned when a reference names a child type the
// parent's schema does not declare.
//
// Errors:
//
//    - modaldb-error-childtype-invalid --
func ErrorChildTypeInvalid(ct ChildType) error {
	return serum.Error(ECodeChildTypeInvalid,
		serum.WithMessageTemplate("not a valid child type: {{childType|q}}"),
		serum.WithDetail("childType", string(ct)),
	)
}

// ErrorRefInvalid is returned when a child reference is malformed.
//
// Errors:
//
//    - modaldb-error-reference-invalid --
func ErrorRefInvalid(reason string) error {
	return serum.Error(ECodeRefInvalid,
		serum.WithMessageTemplate("invalid child reference: {{reason}}"),
		serum.WithDetail("reason", reason),
	)
}

// ErrorNoSuchChild is returned when looking up a raw id that was never added.
//
// Errors:
//
//    - modaldb-error-no-such-child --
func ErrorNoSuchChild(ct ChildType, rawID string) error {
	return serum.Error(ECodeNoSuchChild,
		serum.WithMessageTemplate("no child {{rawId|q}} of type {{childType|q}}"),
		serum.WithDetail("rawId", rawID),
		serum.WithDetail("childType", string(ct)),
	)
}

// ErrorIo wraps generic I/O errors from the Go stdlib
//
// Errors:
//
//    - modaldb-error-io --
func ErrorIo(context string, path string, cause error) error {
	result := serum.Errorf(ECodeIo, "io error: %s: %w", context, cause)
	addDetails(result, [][2]string{{"context", context}, {"path", path}})
	return result
}

// ErrorSerialization is returned when a serialization or deserialization error occurs
//
// Errors:
//
//    - modaldb-error-serialization --
func ErrorSerialization(context string, cause error) error {
	result := serum.Errorf(ECodeSerialization,
		"serialization error: %s: %w", context, cause)
	addDetails(result, [][2]string{
		{"context", context},
	})
	return result
}

// ErrorDocumentParse is returned when parsing of a backing document fails
//
// Errors:
//
//    - modaldb-error-document-parse --
func ErrorDocumentParse(path string, cause error) error {
	result := serum.Errorf(ECodeDocumentParse,
		"parsing of document file %q failed: %w", path, cause)
	addDetails(result, [][2]string{
		{"path", path},
	})
	return result
}

// ErrorDocumentInvalid is returned when a backing document contains invalid data
//
// Errors:
//
//    - modaldb-error-document-invalid --
func ErrorDocumentInvalid(documentID string, reason string) error {
	return serum.Error(ECodeDocumentInvalid,
		serum.WithMessageTemplate("invalid document {{documentId|q}}: {{reason}}"),
		serum.WithDetail("documentId", documentID),
		serum.WithDetail("reason", reason),
	)
}

// ErrorSchemaInvalid is returned when a schema's item spec is incoherent
//
// Errors:
//
//    - modaldb-error-schema-invalid --
func ErrorSchemaInvalid(key string, reason string) error {
	return serum.Error(ECodeSchemaInvalid,
		serum.WithMessageTemplate("invalid schema for item {{key|q}}: {{reason}}"),
		serum.WithDetail("key", key),
		serum.WithDetail("reason", reason),
	)
}

// ErrorFileMissing is used when an expected file does not exist
//
// Errors:
//
//    - modaldb-error-missing --
func ErrorFileMissing(path string) error {
	return serum.Error(ECodeMissing,
		serum.WithMessageTemplate("file missing at path: {{path|q}}"),
		serum.WithDetail("path", path),
	)
}

// addDetails is a helper method to get around the fact that doing a type coercion within
// an exported function is not currently allowed by serum.
// We won't need this if serum supports an equivalent to %w in message templates OR
// supports adding details when using serum.Errorf
func addDetails(err error, details [][2]string) {
	s := err.(*serum.ErrorValue)
	s.Data.Details = append(s.Data.Details, details...)
}
