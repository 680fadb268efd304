/*
Package domain contains the storage-level models shared by the collection
runtime and its adapters.

It is kept free of I/O so adapters can depend on it without pulling in the
runtime.

# Key Entities

  - Document: the persisted form of a document, keyed by top-level path.
  - Sentinel errors: ErrDocumentNotFound, ErrUnknownOperator, ErrMethodNotFound, ErrInvalidID.
*/
package domain
