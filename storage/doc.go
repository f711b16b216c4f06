// See storage.go for the Store/FileSystem contracts; local.go, memory.go, and
// remote.go supply the local-file, in-memory, and remote-object-store
// implementations spec.md §2 requires callers be able to choose between.
package storage
