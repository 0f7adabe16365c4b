package main

import "github.com/jmehdipour/customer-portal/cmd"

func main() {
	cmd.Execute()
}
