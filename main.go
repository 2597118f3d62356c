package main

import (
	"context"
	"os"

	"disc3d-batch/cmd"
)

const version = "0.3.0"

func main() {
	os.Exit(cmd.Execute(context.Background(), version))
}
