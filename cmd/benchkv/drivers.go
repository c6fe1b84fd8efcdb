package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/benchkv/benchkv/pkg/driver"
)

// driversCmd lists every registered backend driver.
var driversCmd = &cobra.Command{
	Use:   "drivers",
	Short: "List available backend drivers",
	Long:  `Display every registered backend driver with its storage paradigm, record encoding and scan behavior.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "DRIVER\tNAME\tPARADIGM\tENCODING\tORDERED SCAN\tSHARED POOL\tEMBEDDED")
		for _, id := range driver.ListRegistered() {
			caps, err := driver.GlobalRegistry().GetCapabilities(id)
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%v\t%v\t%v\n",
				caps.ID, caps.Name, caps.Paradigm, caps.Encoding,
				caps.OrderedScan, caps.SharedPool, caps.Embedded)
		}
		return w.Flush()
	},
}
