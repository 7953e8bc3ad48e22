package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/i474232898/hko-weather-proxy/internal/weather"
)

func newFetchCmd(envFiles *[]string) *cobra.Command {
	var (
		lang    string
		noCache bool
		raw     bool
	)

	cmd := &cobra.Command{
		Use:   "fetch <dataType>",
		Short: "Fetch one data type from the observatory and print it as JSON",
		Long: "Fetch one data type through the retrying client and print it as JSON.\n" +
			"Data types: " + dataTypeList(),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dataType, err := weather.ParseDataType(args[0])
			if err != nil {
				return err
			}
			language, err := weather.ParseLanguage(lang, "")
			if err != nil {
				return err
			}

			c, err := loadComponents(*envFiles)
			if err != nil {
				return err
			}

			payload, err := c.service.FetchWeatherData(cmd.Context(), dataType, language, !noCache)
			if err != nil {
				return err
			}

			var out any = weather.Project(dataType, payload)
			if raw {
				out = payload
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(out); err != nil {
				return fmt.Errorf("encode output: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&lang, "lang", "", "response language (en, tc, sc); defaults to DEFAULT_LANGUAGE")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "skip the cache lookup")
	cmd.Flags().BoolVar(&raw, "raw", false, "print the upstream payload without projection")
	return cmd
}

func dataTypeList() string {
	parts := make([]string, len(weather.DataTypes))
	for i, dt := range weather.DataTypes {
		parts[i] = string(dt)
	}
	return strings.Join(parts, ", ")
}
