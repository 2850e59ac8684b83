package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/viniausta/repasse-medico/internal/cli"
)

var rootCmd = &cobra.Command{
	Use:   "repasse",
	Short: "Hospital repasse médico email automation",
}

func main() {
	cli.SetupCLI(rootCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
