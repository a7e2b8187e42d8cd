// Package main is the entry point for the hdlvet CLI.
package main

import "hdlvet.dev/pkg/hdlvet/cmd"

func main() {
	cmd.Execute()
}
