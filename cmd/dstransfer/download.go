package main

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"datastore-transfer/pkg/transfer"
	"datastore-transfer/pkg/transferio"
)

var downloadCmd = &cobra.Command{
	Use:   "download <datastore-path> <local-file>",
	Short: "Download a disk image from the datastore to a local file",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		params, err := datastoreConn()
		if err != nil {
			return err
		}
		params.FilePath = args[0]

		dst, err := transferio.NewFileWriteStream(args[1], appLog)
		if err != nil {
			return err
		}
		defer dst.Close()

		written, err := transfer.DownloadImage(cmd.Context(), params, dst, appLog)
		if err != nil {
			return err
		}
		appLog.WithFields(logrus.Fields{
			"path":  args[0],
			"file":  args[1],
			"bytes": written,
		}).Info("download complete")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(downloadCmd)
}
