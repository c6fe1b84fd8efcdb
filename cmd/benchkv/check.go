package main

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/benchkv/benchkv/pkg/driver"
)

var checkTable string

// checkCmd walks one record through every verb against the configured
// backend and reports the outcome of each step.
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify a backend end to end",
	Long: `Insert, read, update, scan and delete one record against the configured backend, ` +
		`reporting the result of every step. The record key is random, so repeated checks do not collide.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		log := newLogger("check")
		cfg := connectionConfig()
		cfg.Table = checkTable

		client, err := driver.Open(cfg, log)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		if err := client.Init(ctx); err != nil {
			return err
		}
		defer client.Cleanup(context.Background())

		key := "check-" + uuid.NewString()
		record := driver.RowFromStrings(map[string]string{
			"field0": "initial",
			"field1": "payload",
		})

		steps := []struct {
			name string
			run  func() driver.Status
		}{
			{"insert", func() driver.Status {
				return client.Insert(ctx, checkTable, key, record)
			}},
			{"read", func() driver.Status {
				status, row := client.Read(ctx, checkTable, key, nil)
				if status == driver.StatusOK && !driver.RowsEqual(record, row) {
					log.Error("read returned different content than was inserted")
					return driver.StatusError
				}
				return status
			}},
			{"update", func() driver.Status {
				return client.Update(ctx, checkTable, key, driver.RowFromStrings(map[string]string{
					"field0": "updated",
				}))
			}},
			{"read-updated", func() driver.Status {
				status, row := client.Read(ctx, checkTable, key, []string{"field0", "field1"})
				if status != driver.StatusOK {
					return status
				}
				if row["field0"].String() != "updated" || row["field1"].String() != "payload" {
					log.Error("update did not preserve untouched fields")
					return driver.StatusError
				}
				return driver.StatusOK
			}},
			{"scan", func() driver.Status {
				status, rows := client.Scan(ctx, checkTable, key, 1, nil)
				if status == driver.StatusOK && len(rows) == 0 {
					log.Error("scan from the record's own key returned nothing")
					return driver.StatusError
				}
				return status
			}},
			{"delete", func() driver.Status {
				return client.Delete(ctx, checkTable, key)
			}},
			{"read-deleted", func() driver.Status {
				status, _ := client.Read(ctx, checkTable, key, nil)
				if status != driver.StatusNotFound {
					return driver.StatusError
				}
				return driver.StatusOK
			}},
		}

		failed := 0
		for _, step := range steps {
			start := time.Now()
			status := step.run()
			if status.IsOK() {
				fmt.Printf("  ok   %-14s (%s)\n", step.name, elapsed(start))
			} else {
				fmt.Printf("  FAIL %-14s %s\n", step.name, status)
				failed++
			}
		}

		if failed > 0 {
			return fmt.Errorf("%d of %d steps failed", failed, len(steps))
		}
		fmt.Printf("backend %s passed all %d steps\n", cfg.Driver, len(steps))
		return nil
	},
}

func init() {
	checkCmd.Flags().StringVar(&checkTable, "table", "usertable", "Table or collection to use")
}
