// Package git runs the git command line to find the repository a file
// belongs to and to produce the file's working tree diff.
package git
