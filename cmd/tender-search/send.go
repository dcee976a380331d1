// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/tender-search/internal/delivery"
	"github.com/pdiddy/tender-search/internal/export"
	"github.com/pdiddy/tender-search/internal/search"
	"github.com/pdiddy/tender-search/internal/secrets"
)

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "E-mail saved results",
	Long: `Send delivers a saved search to a recipient. In mailto mode it prints a
mailto: link with the subject and summary filled in; attach the exported
file by hand. In smtp mode it sends the results as an attachment through
the configured SMTP server (mail.ru by default). SMTP credentials come from
.secrets/smtp-login and .secrets/smtp-password or the config file.`,
	RunE: runSend,
}

func init() {
	sendCmd.Flags().String("from-file", "", "saved search file written by search --save")
	sendCmd.Flags().String("to", "", "recipient e-mail address")
	sendCmd.Flags().String("mode", "", "delivery mode: mailto or smtp (default mailto)")
	sendCmd.Flags().String("format", string(export.XLSX), "attachment format for smtp mode")

	viper.BindPFlag("delivery.mode", sendCmd.Flags().Lookup("mode"))

	rootCmd.AddCommand(sendCmd)
}

func runSend(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(viper.GetViper(), loadedSecrets)
	if err != nil {
		return err
	}

	from, _ := cmd.Flags().GetString("from-file")
	to, _ := cmd.Flags().GetString("to")
	format, _ := cmd.Flags().GetString("format")
	if from == "" {
		return fmt.Errorf("provide --from-file")
	}
	if to == "" {
		return fmt.Errorf("provide --to")
	}

	qf, err := search.ReadQueryFile(from)
	if err != nil {
		return err
	}
	query, region, count := qf.Query.Text, qf.Query.Region, qf.Results.Len()

	switch cfg.Delivery.Mode {
	case delivery.ModeMailto, "":
		link, err := delivery.MailtoLink(delivery.Message{
			To:      to,
			Subject: delivery.SummarySubject(query),
			Body:    delivery.SummaryBody(query, region, count, true),
		})
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), link)
		fmt.Fprintln(os.Stderr, "Attach the exported file to the message by hand.")
		return nil

	case delivery.ModeSMTP:
		f, err := export.ParseFormat(format)
		if err != nil {
			return err
		}
		data, err := export.Encode(qf.Results, f)
		if err != nil {
			return err
		}

		sender := delivery.NewSMTPSender(cfg.Delivery)
		err = sender.Send(cmd.Context(), delivery.Message{
			To:          to,
			Subject:     delivery.SummarySubject(query),
			Body:        delivery.SummaryBody(query, region, count, false),
			Attachment:  data,
			Filename:    f.Filename(),
			ContentType: f.MIMEType(),
		})
		if errors.Is(err, delivery.ErrMissingCredentials) {
			return fmt.Errorf("%w: add .secrets/%s and .secrets/%s", err, secrets.SMTPLogin, secrets.SMTPPassword)
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Sent %d records to %s\n", count, to)
		return nil
	}
	return fmt.Errorf("unknown delivery mode %q (want %s or %s)", cfg.Delivery.Mode, delivery.ModeMailto, delivery.ModeSMTP)
}
