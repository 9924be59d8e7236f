// Package writer applies rendered files to disk.
//
// Every write is all-or-nothing per file: content and backup are staged in
// temporary files beside the target and renamed into place. Parent
// directories are created as needed.
package writer
