// Package `chatcli` implements console client application for the chat relay server.
//
// Client asks for username, joins the chat and then sends every typed line,
// while messages of other participants are printed as they arrive.
// Type !quit or close input (Ctrl-D) to leave the chat.
//
// Server address is taken from -host and -port flags, which default to
// CHATCLI_HOST and CHATCLI_PORT environment variables (.env file is loaded when present).
package main
