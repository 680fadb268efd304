/*
Package ports defines the driven ports (interfaces) of the collection runtime.

These interfaces decouple the runtime from external implementations, allowing
a collection to work with various storage backends and locking strategies.

# Key Interfaces

  - DocumentStore: Responsible for persisting and loading documents.
  - DistributedLocker: Provides locking for concurrent read-modify-write updates.

Adapters verify themselves against the reusable suites RunDocumentStoreContract
and RunLockerContract.
*/
package ports
