package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"datastore-transfer/pkg/transferio"
)

var statCmd = &cobra.Command{
	Use:   "stat <datastore-path>",
	Short: "Print the size of a datastore file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		params, err := datastoreConn()
		if err != nil {
			return err
		}
		params.FilePath = args[0]

		src, err := transferio.NewDatastoreReadStream(cmd.Context(), params, appLog)
		if err != nil {
			return err
		}
		defer src.Close()

		if size := src.Size(); size >= 0 {
			fmt.Printf("%s\t%d\n", args[0], size)
		} else {
			fmt.Printf("%s\tunknown\n", args[0])
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statCmd)
}
