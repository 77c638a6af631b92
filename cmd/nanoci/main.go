package main

import "github.com/nanogui/nanoci/cmd/nanoci/internal"

func main() {
	internal.Execute()
}
