package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/intelink/console/internal/accesscontrol"
	"github.com/intelink/console/internal/apperr"
	"github.com/intelink/console/internal/form"
	"github.com/intelink/console/internal/intelink"
	"github.com/intelink/console/internal/query"
)

func newURLsCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "urls",
		Short: "List, search and manage short links",
	}
	cmd.AddCommand(
		newURLsListCmd(opts),
		newURLsSearchCmd(opts),
		newURLsCreateCmd(opts),
		newURLsActionCmd(opts, "delete", "Delete a short link", func(ctx context.Context, s *intelink.URLService, code string) error {
			return s.Delete(ctx, code)
		}),
		newURLsActionCmd(opts, "enable", "Enable a short link", func(ctx context.Context, s *intelink.URLService, code string) error {
			return s.Enable(ctx, code)
		}),
		newURLsActionCmd(opts, "disable", "Disable a short link", func(ctx context.Context, s *intelink.URLService, code string) error {
			return s.Disable(ctx, code)
		}),
	)
	return cmd
}

func newURLsListCmd(opts *options) *cobra.Command {
	var page, limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List your short links",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.open()
			if err != nil {
				return err
			}
			defer s.Close()

			p, err := s.api.URLs.List(cmd.Context(), intelink.ListOptions{Page: page, Limit: limit})
			if err != nil {
				return err
			}
			printURLs(cmd.OutOrStdout(), p)
			return nil
		},
	}
	cmd.Flags().IntVar(&page, "page", 0, "page number")
	cmd.Flags().IntVar(&limit, "limit", 0, "links per page")
	return cmd
}

func newURLsSearchCmd(opts *options) *cobra.Command {
	var (
		limit int
		delay time.Duration
	)
	cmd := &cobra.Command{
		Use:   "search [term]",
		Short: "Search your short links",
		Long: `Searches your short links for term.

Without a term, search terms are read from stdin one per line, as typed.
Lines arriving within --delay of each other are coalesced and only the
newest search is printed; the last line is always searched.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.open()
			if err != nil {
				return err
			}
			defer s.Close()

			search := func(ctx context.Context, term string) (*intelink.Page[intelink.ShortURL], error) {
				return s.api.URLs.Search(ctx, term, intelink.ListOptions{Limit: limit})
			}
			if len(args) == 1 {
				p, err := search(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				printURLs(cmd.OutOrStdout(), p)
				return nil
			}
			return searchInteractive(cmd, search, delay)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum results")
	cmd.Flags().DurationVar(&delay, "delay", query.DefaultSearchDelay, "pause between lines before searching")
	return cmd
}

func searchInteractive(cmd *cobra.Command, search query.Fetcher[*intelink.Page[intelink.ShortURL]], delay time.Duration) error {
	var (
		mu        sync.Mutex
		delivered atomic.Uint64
		notify    = make(chan struct{}, 1)
	)
	out := cmd.OutOrStdout()
	ctrl := query.NewSearchController("urls.search", delay, search, func(r query.Result[*intelink.Page[intelink.ShortURL]]) {
		if !apperr.IsSuppressed(r.Err) {
			mu.Lock()
			if r.Err != nil {
				fmt.Fprintf(out, "%q: %s\n", r.Term, apperr.Message(r.Err))
			} else {
				fmt.Fprintf(out, "Results for %q\n", r.Term)
				printURLs(out, r.Value)
			}
			mu.Unlock()
		}
		delivered.Store(r.Seq)
		select {
		case notify <- struct{}{}:
		default:
		}
	})
	defer ctrl.Close()

	var last string
	scanner := bufio.NewScanner(cmd.InOrStdin())
	for scanner.Scan() {
		if term := strings.TrimSpace(scanner.Text()); term != "" {
			last = term
			ctrl.Type(term)
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	if last == "" {
		return nil
	}

	seq := ctrl.Flush(last)
	for delivered.Load() < seq {
		select {
		case <-notify:
		case <-cmd.Context().Done():
			return cmd.Context().Err()
		}
	}
	return nil
}

func newURLsCreateCmd(opts *options) *cobra.Command {
	var (
		values    form.CreateURLForm
		mode      string
		countries []string
		ipRanges  []string
	)
	cmd := &cobra.Command{
		Use:   "create <url>",
		Short: "Create a short link",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			values.OriginalURL = args[0]

			state := accesscontrol.NewState()
			m, err := accesscontrol.ParseMode(mode)
			if err != nil {
				return err
			}
			state.SetMode(m)
			var problems []string
			for _, code := range countries {
				if msg := state.AddCountry(code); msg != "" {
					problems = append(problems, fmt.Sprintf("%s: %s", code, msg))
				}
			}
			for _, r := range ipRanges {
				if msg := state.AddIPRange(r); msg != "" {
					problems = append(problems, fmt.Sprintf("%s: %s", r, msg))
				}
			}
			if len(problems) > 0 {
				return errors.New(strings.Join(problems, "; "))
			}

			s, err := opts.open()
			if err != nil {
				return err
			}
			defer s.Close()

			f := form.New(values, form.StructValidator[form.CreateURLForm]())
			err = f.HandleSubmit(cmd.Context(), func(ctx context.Context, v form.CreateURLForm) error {
				u, err := s.api.URLs.Create(ctx, intelink.NewCreateURLRequest(v, state.Snapshot()))
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Created %s -> %s\n", u.ShortURL, u.OriginalURL)
				summary := accesscontrol.Preview(state.Snapshot())
				fmt.Fprintln(out, summary.Headline)
				printBadges(out, summary)
				return nil
			})
			if errors.Is(err, form.ErrInvalid) {
				return fieldErrors(f.Errors())
			}
			return err
		},
	}
	cmd.Flags().StringVar(&values.Description, "description", "", "link description")
	cmd.Flags().StringVar(&values.Password, "password", "", "password visitors must enter")
	cmd.Flags().IntVar(&values.MaxUsage, "max-usage", 0, "maximum number of clicks (0 for unlimited)")
	cmd.Flags().IntVar(&values.AvailableDays, "days", 0, "days until the link expires")
	cmd.Flags().StringVar(&mode, "mode", "ALLOW", "access rule mode: ALLOW or BLOCK")
	cmd.Flags().StringSliceVar(&countries, "country", nil, "ISO country code to allow or block (repeatable)")
	cmd.Flags().StringSliceVar(&ipRanges, "ip", nil, "IP address or CIDR to allow or block (repeatable)")
	return cmd
}

func newURLsActionCmd(opts *options, use, short string, run func(context.Context, *intelink.URLService, string) error) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <code>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.open()
			if err != nil {
				return err
			}
			defer s.Close()

			if err := run(cmd.Context(), s.api.URLs, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %sd\n", args[0], strings.TrimSuffix(use, "e"))
			return nil
		},
	}
}

func printURLs(w io.Writer, p *intelink.Page[intelink.ShortURL]) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CODE\tCLICKS\tSTATUS\tACCESS\tCREATED\tTARGET")
	for _, u := range p.Items {
		status := "active"
		if !u.IsActive {
			status = "disabled"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			u.ShortCode,
			humanize.Comma(u.TotalClicks),
			status,
			u.AccessControl.EffectiveMode(),
			humanize.Time(u.CreatedAt),
			u.OriginalURL,
		)
	}
	_ = tw.Flush()
	fmt.Fprintf(w, "Page %d of %d (%s links)\n", p.Page, p.TotalPages, humanize.Comma(int64(p.Total)))
}

func printBadges(w io.Writer, s accesscontrol.Summary) {
	if !s.Restricted {
		fmt.Fprintln(w, s.Message)
		return
	}
	for _, b := range s.Countries {
		fmt.Fprintf(w, "  %s %s\n", b.Flag, b.Label)
	}
	if s.CountriesMore != "" {
		fmt.Fprintf(w, "  %s\n", s.CountriesMore)
	}
	for _, b := range s.IPRanges {
		fmt.Fprintf(w, "  %s\n", b.Label)
	}
	if s.IPRangesMore != "" {
		fmt.Fprintf(w, "  %s\n", s.IPRangesMore)
	}
}
