/*
	Package modal contains the per-mode item stores.

	An item store gives uniform get/set/delete/presence access to the items of
	one data object that share a storage mode.  The two variants form a closed
	set: MemoryStore holds values in process memory; DiskStore lazily
	materializes values from one file per key and persists writes eagerly.
	NewStore selects the variant from an explicit mode tag.

	Presence is always recomputed from ground truth (a sentinel check, or a
	fresh stat of the backing file) at query time.  Stores also maintain a
	write-time presence flag per key, but that flag is an optimization for
	snapshot export and is never consulted to answer a presence query.

	Each store instance exclusively owns its in-memory state.  The backing
	files are a shared external resource: two instances pointed at the same
	root can silently clobber each other's writes, and no locking is provided.
*/
package modal
