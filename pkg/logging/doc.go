// Package logging provides the log manager shared by mach and its command
// handlers.
//
// Every record is a structured event: a level, an action name, a params map
// and a message format whose {name} placeholders are filled from params.
// The manager fans records out to the sinks attached at runtime:
//
//   - a terminal sink that prints the formatted message prefixed with the
//     time elapsed since start-up (or since the previous record)
//   - any number of JSON sinks, one record per line, typically a log file
//     opened in append mode
//
// Loggers may be created before any sink is attached; records are routed to
// whatever sinks exist when they are emitted.
package logging
