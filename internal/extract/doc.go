// Package extract turns an archive file into a directory of extracted members.
//
// A Dispatcher routes an archive by its final suffix to one of the format
// backends (zip/zipx, 7z, rar, the tar family, cab). Every backend follows the
// same contract: members are written under the target directory with their
// relative paths preserved, progress is reported after each member as a
// non-decreasing percentage, and a successful run always ends with exactly
// 100.0. Failures are classified with the services error markers and carried
// in a Result; callers that only need the outcome use Dispatcher.Extract,
// which collapses the Result to a boolean.
package extract
