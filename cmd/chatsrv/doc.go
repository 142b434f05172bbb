// Package `chatsrv` implements relay server application for text chat over TCP.
//
// To compile chat server locally, run from package directory:
//
//	go install .
//
// Server is configured with command line flags, defaults of the flags are taken
// from CHATSRV_* environment variables, which in turn may be placed into .env file
// of working directory. Run with -help to see all options.
//
// Server stops itself when nobody is connected during idle timeout,
// operator may also type exit command into console or press Ctrl-C
// to notify clients and shut the server down.
package main
