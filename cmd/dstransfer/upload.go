package main

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"datastore-transfer/pkg/transfer"
	"datastore-transfer/pkg/transferio"
)

var uploadCmd = &cobra.Command{
	Use:   "upload <local-file> <datastore-path>",
	Short: "Upload a local disk image to the datastore",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		params, err := datastoreConn()
		if err != nil {
			return err
		}
		params.FilePath = args[1]

		src, err := transferio.NewFileReadStream(args[0], appLog)
		if err != nil {
			return err
		}
		defer src.Close()

		dst, err := transferio.NewDatastoreWriteStream(cmd.Context(), params, src.Size(), appLog)
		if err != nil {
			return err
		}
		defer dst.Close()

		written, err := (&transfer.Pump{Src: src, Dst: dst, Log: appLog}).Run(cmd.Context())
		if err != nil {
			return err
		}
		appLog.WithFields(logrus.Fields{
			"file":  args[0],
			"path":  args[1],
			"bytes": written,
		}).Info("upload complete")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(uploadCmd)
}
