package main

import "github.com/OneVth/prj-board/cmd/board/cmd"

// Populated by the release build via -ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	cmd.SetVersionInfo(version, commit, date)
	cmd.Execute()
}
