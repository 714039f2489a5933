package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"priceoracle/internal/pricefeed"
)

// --- Price Command ---

func newPriceCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "price",
		Short: "Print the closing price of a pair on the day containing --at",
		RunE: func(cmd *cobra.Command, args []string) error {
			pair, instant, selected, err := a.parseCommon(cmd)
			if err != nil {
				return err
			}
			asJSON, _ := cmd.Flags().GetBool("json")

			ctx, cancel := context.WithTimeout(cmd.Context(), time.Duration(a.cfg.Server.RequestTimeoutSec)*time.Second)
			defer cancel()

			lines := make([]priceLine, 0, len(selected))
			failed := 0
			for _, f := range selected {
				line := priceLine{Feed: f.ID(), Pair: pair.String(), Instant: instant.UTC().Format(time.RFC3339)}
				price, err := f.RetrievePrice(ctx, pair, instant)
				if err != nil {
					failed++
					line.Error = err.Error()
					line.Kind = pricefeed.KindOf(err).String()
				} else {
					line.Price = &price
				}
				lines = append(lines, line)
			}
			if err := printPrices(cmd.OutOrStdout(), lines, asJSON); err != nil {
				return err
			}
			if failed == len(selected) {
				return fmt.Errorf("no feed returned a price for %s", pair)
			}
			return nil
		},
	}
	cmd.Flags().String("feed", "all", "feed id, or all")
	cmd.Flags().String("pair", "", "asset pair, e.g. BTCUSD or MSTR/USD")
	cmd.Flags().String("at", "", "RFC 3339 instant or YYYY-MM-DD (default: now)")
	cmd.Flags().Bool("json", false, "print JSON lines")
	_ = cmd.MarkFlagRequired("pair")
	return cmd
}

type priceLine struct {
	Feed    string   `json:"feed"`
	Pair    string   `json:"pair"`
	Instant string   `json:"instant"`
	Price   *float64 `json:"price,omitempty"`
	Error   string   `json:"error,omitempty"`
	Kind    string   `json:"kind,omitempty"`
}

func printPrices(w io.Writer, lines []priceLine, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		for _, l := range lines {
			if err := enc.Encode(l); err != nil {
				return err
			}
		}
		return nil
	}
	for _, l := range lines {
		if l.Price != nil {
			// 'g' with -1 precision round-trips the float exactly.
			fmt.Fprintf(w, "%-14s %-8s %s %s\n", l.Feed, l.Pair, l.Instant, strconv.FormatFloat(*l.Price, 'g', -1, 64))
			continue
		}
		fmt.Fprintf(w, "%-14s %-8s %s error (%s): %s\n", l.Feed, l.Pair, l.Instant, l.Kind, l.Error)
	}
	return nil
}

// --- Translate Command ---

func newTranslateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "translate",
		Short: "Print each feed's symbol for a pair without network access",
		RunE: func(cmd *cobra.Command, args []string) error {
			pair, _, selected, err := a.parseCommon(cmd)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, f := range selected {
				symbol, err := f.TranslateAssetPair(pair)
				if err != nil {
					fmt.Fprintf(out, "%-14s %-8s unsupported: %v\n", f.ID(), pair, err)
					continue
				}
				fmt.Fprintf(out, "%-14s %-8s %s\n", f.ID(), pair, symbol)
			}
			return nil
		},
	}
	cmd.Flags().String("feed", "all", "feed id, or all")
	cmd.Flags().String("pair", "", "asset pair, e.g. BTCUSD")
	_ = cmd.MarkFlagRequired("pair")
	return cmd
}

// --- Feeds Command ---

func newFeedsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "feeds",
		Short: "List the enabled feeds",
		Run: func(cmd *cobra.Command, args []string) {
			for _, id := range a.feeds.IDs() {
				fmt.Fprintln(cmd.OutOrStdout(), id)
			}
		},
	}
}

func (a *app) parseCommon(cmd *cobra.Command) (pricefeed.AssetPair, time.Time, []pricefeed.Feed, error) {
	rawPair, _ := cmd.Flags().GetString("pair")
	pair, err := pricefeed.ParseAssetPair(rawPair)
	if err != nil {
		return 0, time.Time{}, nil, err
	}

	var instant time.Time
	if cmd.Flags().Lookup("at") != nil {
		rawAt, _ := cmd.Flags().GetString("at")
		if instant, err = pricefeed.ParseInstant(rawAt, time.Now()); err != nil {
			return 0, time.Time{}, nil, err
		}
	}

	id, _ := cmd.Flags().GetString("feed")
	selected, err := a.selectFeeds(id)
	if err != nil {
		return 0, time.Time{}, nil, err
	}
	return pair, instant, selected, nil
}
