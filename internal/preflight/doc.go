// Package preflight provides readiness checks for the folders and host
// helpers autounzip depends on.
//
// These checks run in two contexts:
//   - The daemon calls RunAll at startup and logs every failed check; it
//     keeps running, because a missing watch folder is treated as empty and
//     a missing cab helper only affects .cab archives.
//   - The CLI "autounzip status" command prints the same results.
//
// FreeSpace also backs the workflow's min_free_space_mb guard.
package preflight
