// Package fetch downloads GitHub repository snapshots and unpacks them on disk.
//
// A Fetcher turns a repository URL and a ref into a zipball request against
// the GitHub REST API, then extracts the archive into a working directory
// named after owner, repository and ref. Repeated fetches of the same ref
// reuse the same directory. The archive's top-level wrapper directory is kept
// as-is; Result.Root points at it when it can be identified.
package fetch
