// Package util holds small helpers shared by configuration code.
package util
