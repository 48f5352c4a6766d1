// Package workflow turns one detected archive into a single extraction
// attempt: derive the target directory, create it, run the dispatcher with a
// progress adapter, report completion exactly once, and delete the archive
// when the extraction succeeded and deletion is enabled.
//
// Nothing here retries. Every failure ends as success=false on the
// completion sink plus a history row and a log record carrying the error
// kind.
package workflow
