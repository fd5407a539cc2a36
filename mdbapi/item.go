package mdbapi

// ItemKey names a single attribute of a data object.
// Keys are declared by a Schema and each is bound to exactly one storage mode.
type ItemKey string

// StorageMode determines which item store implementation governs a key.
type StorageMode string

const (
	// ModeMemory items live in process memory, seeded from the backing document.
	ModeMemory StorageMode = "memory"
	// ModeDisk items are lazily materialized from one file per key under the
	// object's root directory.
	ModeDisk StorageMode = "disk"
)

// Modes lists the closed set of storage modes.
// Order is stable; callers iterating stores rely on it.
var Modes = []StorageMode{ModeMemory, ModeDisk}

// LoadFunc deserializes an item value from its backing file.
type LoadFunc func(path string) (interface{}, error)

// SaveFunc serializes an item value to its backing file.
// It is expected to write synchronously; modaldb adds no temp-file-and-rename
// step, so a crash mid-write can leave a partial file.
type SaveFunc func(value interface{}, path string) error

// ItemSpec configures one item key in a Schema.
//
// For disk mode, Filename names the backing file under the object's root
// directory and Load must be set; a nil Save marks the item read-only.
// Memory mode ignores all three.
type ItemSpec struct {
	Mode     StorageMode
	Filename string
	Load     LoadFunc
	Save     SaveFunc
}

// Schema declares the shape of one data object type:
// its item keys (each with a storage mode) and its child types.
//
// A Schema is configuration supplied in code by the application;
// it is consumed at object construction and never serialized or mutated.
type Schema struct {
	Items    map[ItemKey]ItemSpec
	Children []ChildType
}

// Keys returns the item keys declared with the given storage mode.
func (s Schema) Keys(mode StorageMode) []ItemKey {
	var keys []ItemKey
	for k, spec := range s.Items {
		if spec.Mode == mode {
			keys = append(keys, k)
		}
	}
	return keys
}

// HasChildType reports whether the given type is one of the declared child types.
func (s Schema) HasChildType(ct ChildType) bool {
	for _, c := range s.Children {
		if c == ct {
			return true
		}
	}
	return false
}

// ValidateSchema checks a schema for configuration mistakes that would
// otherwise surface as confusing failures deep in store operations.
//
// Errors:
//
//    - modaldb-error-schema-invalid -- when a key's spec is incoherent
func ValidateSchema(s Schema) error {
	for k, spec := range s.Items {
		switch spec.Mode {
		case ModeMemory:
			// nothing further to check; memory items carry no file config.
		case ModeDisk:
			if spec.Filename == "" {
				return ErrorSchemaInvalid(string(k), "disk mode requires a filename")
			}
			if spec.Load == nil {
				return ErrorSchemaInvalid(string(k), "disk mode requires a load func")
			}
		default:
			return ErrorSchemaInvalid(string(k), "unknown storage mode "+string(spec.Mode))
		}
	}
	return nil
}
