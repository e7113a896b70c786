package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/getmockd/ersatz/pkg/config"
)

type validateResult struct {
	Files        int `json:"files"`
	Expectations int `json:"expectations"`
	WebSockets   int `json:"websockets"`
	Requirements int `json:"requirements"`
}

func newValidateCmd() *cobra.Command {
	var jsonOutput bool
	cmd := &cobra.Command{
		Use:   "validate FILE|GLOB...",
		Short: "Check expectation files without serving them",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			coll, err := config.Load(args...)
			if err != nil {
				return err
			}
			res := validateResult{
				Files:        len(coll.Sources),
				Expectations: len(coll.Expectations),
				WebSockets:   len(coll.WebSockets),
				Requirements: len(coll.Requirements),
			}
			if res.Files == 0 {
				return fmt.Errorf("%w: %v", config.ErrNoFiles, args)
			}

			out := cmd.OutOrStdout()
			if jsonOutput {
				data, err := json.MarshalIndent(res, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(out, string(data))
				return nil
			}
			fmt.Fprintf(out, "ok: %d expectation(s), %d websocket(s), %d requirement(s) in %d file(s)\n",
				res.Expectations, res.WebSockets, res.Requirements, res.Files)
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "print the result as JSON")
	return cmd
}
