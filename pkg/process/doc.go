// Package process runs external programs to completion while streaming their
// output one line at a time.
//
// Standard output and standard error are merged, decoded from the configured
// encoding and handed to a callback per line. The exit status is returned as
// an int; a failure to start the program is returned as an error.
package process
