package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:   "postfactory",
		Short: "Turn a hotel listing URL into per-image social media posts",
	}
	root.AddCommand(serveCMD(), generateCMD())
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
