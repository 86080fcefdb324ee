package main

import (
	"github.com/joho/godotenv"
	"github.com/piyush0609/ai-pulse/cmd"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	// Local development convenience, missing file is fine.
	_ = godotenv.Load()

	cmd.SetVersionInfo(version, commit, date)
	cmd.Execute()
}
