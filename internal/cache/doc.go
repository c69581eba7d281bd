// Package cache maps remote stylesheet/script/image URLs onto the on-disk
// layout <CacheRoot>/<hostname>/<sanitized-path> and materializes each entry
// exactly once. Entries are written through a temp file + rename and are never
// mutated afterwards; existence on disk is the only state an entry has.
// The rewrite package drives the Downloader for every remote reference it
// finds, while the host process supplies the Filesystem capability (the
// default being NewHostFS over the shared HTTP client).
package cache
