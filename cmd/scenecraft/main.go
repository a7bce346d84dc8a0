// Package main is the entry point for the scenecraft command.
package main

func main() {
	Execute()
}
