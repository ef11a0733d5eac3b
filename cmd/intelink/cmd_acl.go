package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/intelink/console/internal/accesscontrol"
	"github.com/intelink/console/internal/geo"
)

func newACLCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "acl",
		Short: "Validate and test access rules offline",
	}
	cmd.AddCommand(newACLValidateCmd(), newACLCheckCmd())
	return cmd
}

func newACLValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <ip-or-cidr>...",
		Short: "Classify IP addresses and CIDR ranges",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			invalid := 0
			for _, arg := range args {
				c := accesscontrol.Classify(arg)
				if !c.Valid() {
					invalid++
					fmt.Fprintf(cmd.OutOrStdout(), "%s\tinvalid\t%s\n", arg, c.Message)
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s addresses\n", c, c.Kind, humanize.Comma(int64(c.Size)))
			}
			if invalid > 0 {
				return fmt.Errorf("%d of %d entries are invalid", invalid, len(args))
			}
			return nil
		},
	}
}

func newACLCheckCmd() *cobra.Command {
	var (
		mode           string
		countries      []string
		ipRanges       []string
		visitorIP      string
		visitorCountry string
		geoipPath      string
	)
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Test whether a visitor would be redirected",
		Example: `  intelink acl check --mode BLOCK --country RU --visitor-country ru
  intelink acl check --ip 10.0.0.0/8 --visitor-ip 10.1.2.3
  intelink acl check --country DE --visitor-ip 203.0.113.9 --geoip GeoLite2-Country.mmdb`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := accesscontrol.ParseMode(mode)
			if err != nil {
				return err
			}
			data := accesscontrol.Data{Mode: m, Countries: countries, IPRanges: ipRanges}
			state, problems := accesscontrol.FromData(data)
			if len(problems) > 0 {
				return errors.New(strings.Join(problems, "; "))
			}

			if visitorCountry == "" && visitorIP != "" && geoipPath != "" {
				reader, err := geo.Open(geoipPath)
				if err != nil {
					return err
				}
				defer reader.Close()
				code, err := geo.Lookup(reader, visitorIP)
				switch {
				case err == nil:
					visitorCountry = code
				case errors.Is(err, geo.ErrInvalidIP):
					return err
				default:
					fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", err)
				}
			}

			decision, err := accesscontrol.Evaluate(state.Snapshot(), visitorIP, visitorCountry)
			if err != nil {
				return err
			}
			verdict := "ALLOWED"
			if !decision.Allowed {
				verdict = "BLOCKED"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", verdict, decision.Reason)
			return nil
		},
	}
	cmd.Flags().StringVar(&mode, "mode", "ALLOW", "rule mode: ALLOW or BLOCK")
	cmd.Flags().StringSliceVar(&countries, "country", nil, "ISO country code rule (repeatable)")
	cmd.Flags().StringSliceVar(&ipRanges, "ip", nil, "IP or CIDR rule (repeatable)")
	cmd.Flags().StringVar(&visitorIP, "visitor-ip", "", "visitor IP address")
	cmd.Flags().StringVar(&visitorCountry, "visitor-country", "", "visitor country code")
	cmd.Flags().StringVar(&geoipPath, "geoip", "", "GeoIP2/GeoLite2 country database used to resolve --visitor-ip")
	return cmd
}
