package main

import "github.com/voidnologo/bokeh-graph/internal/cmd"

func main() {
	cmd.Execute()
}
