package main

import "github.com/nok-base/consul-sync/cmd/consul-sync/cmd"

func main() {
	cmd.Execute()
}
