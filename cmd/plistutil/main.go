// Command plistutil is a thin cobra/viper front end over the plist
// package: inspect, convert, and build Apple property lists from the
// command line without redefining any of the package's core semantics.
package main

func main() {
	execute()
}
