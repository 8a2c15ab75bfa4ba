// Package detect infers which file an external command produced by comparing
// the working directory against a pre-execution scan.
//
// Detection is freshness based: a candidate is any file with a configured
// extension whose name was absent from the pre scan. The working artifact and
// the backup directory are never candidates. When several candidates appear
// the most recently modified wins, and equal modification times resolve to
// the lexicographically smallest name so repeated runs agree.
package detect
