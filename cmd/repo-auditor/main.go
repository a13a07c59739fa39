package main

import "github.com/repo-auditor/repo-auditor/internal/cli"

func main() {
	cli.Execute()
}
