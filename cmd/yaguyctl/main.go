package main

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"
)

var Version = "dev"

func main() {
	log.SetPrefix("[CTL] ")
	log.SetFlags(log.Ldate | log.Ltime)

	rootCmd := &cobra.Command{
		Use:     "yaguyctl",
		Short:   "Operator tasks for the Ask YaGuy API",
		Version: Version,
	}

	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(createAdminCmd())
	rootCmd.AddCommand(slaRemindCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
