package main

import "github.com/dbsmedya/historytracker/cmd/historytracker/cmd"

func main() {
	cmd.Execute()
}
