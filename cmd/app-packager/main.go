package main

import "app-packager/internal/cli"

func main() {
	cli.Execute()
}
