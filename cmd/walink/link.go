package main

import (
	"github.com/spf13/cobra"

	"github.com/ibeckermayer/walink/internal/automator"
)

func qrCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "qr",
		Short: "Add a bot and print its WhatsApp QR code",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLink(cmd, automator.QR{})
		},
	}
}

func pairingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pairing <phone>",
		Short: "Add a bot and print its WhatsApp pairing code",
		Long:  "Add a bot and print its WhatsApp pairing code.\nThe phone number is passed to the service as given, e.g. 6281234567890.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLink(cmd, automator.Pairing{Phone: args[0]})
		},
	}
}

// runLink runs one link workflow. Failures after configuration are part of
// the printed report and do not fail the command.
func runLink(cmd *cobra.Command, method automator.Method) error {
	a, closeApp, err := openApp()
	if err != nil {
		return err
	}
	defer closeApp()

	_, err = a.Link(cmd.Context(), method)
	return err
}
