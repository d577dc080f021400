package main

import "github.com/wkalt/streamcap/cmd/logcat/cmd"

func main() {
	cmd.Execute()
}
