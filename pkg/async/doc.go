// Package async issues fire-and-forget peripheral commands and routes
// their single completion back to the program.
//
// A Layer allows exactly one command in flight. Every issued command gets a
// Token; the completion callback carries the token so a late or duplicated
// completion can not be mistaken for the result of a newer command.
// Unsolicited indications (inbound connection, message, disconnection) arrive
// on the same callbacks and are queued as session events instead.
package async
