package main

import "github.com/kishore-anbalagan/learning-management-system-sub000/internal/cli"

func main() {
	cli.Execute()
}
