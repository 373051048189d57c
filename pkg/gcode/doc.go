// Package gcode defines the command model exchanged with the host: fixed
// point values, words, lines and the events produced by a host link.
//
// A line like
//
//	M620 N1 A135 B107.5 C80 F2
//
// parses into the command word M620 followed by argument words in the
// order they appear.
package gcode
