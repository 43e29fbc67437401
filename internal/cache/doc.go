// Package cache is the durable template id -> TemplateMetadata mapping.
//
// The cache is a pretty-printed JSON object:
//
//	{
//	  "template_1.indt": {
//	    "image_slots": 3,
//	    "text_char_capacity": 200
//	  }
//	}
//
// Key order is meaningful: the selector breaks score ties by it. Updates are
// applied with sjson on the raw document so existing keys keep their
// position and untouched entries (including fields this version does not
// know) are rewritten unchanged. New keys are appended.
//
// # Writes
//
// PutAll is read-merge-write under a mutex shared by every Store opened on
// the same path. The merged document goes to a temp file in the target
// directory, is fsynced, then renamed over the target. Readers never lock.
//
// # Corruption
//
// A document that is not a JSON object of objects, or an entry whose counts
// are not non-negative integers, is reported as apperrors.CodeCacheCorrupt
// by every read and by PutAll. The file is never reset.
package cache
