package main

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/benchkv/benchkv/pkg/driver"
)

var (
	loadTable      string
	loadWorkers    int
	loadRecords    int
	loadFieldCount int
	loadFieldLen   int
	loadKeyPrefix  string
)

// loadCmd inserts a keyed record set through concurrent workers, one client
// per worker, the way a benchmark run populates its data set.
var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Load a record set into a backend",
	Long: `Insert a generated record set into the configured backend using one client per worker. ` +
		`Record payloads are deterministic, so a load is reproducible across backends.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if loadWorkers < 1 {
			return fmt.Errorf("workers must be at least 1")
		}
		if loadRecords < 1 {
			return fmt.Errorf("records must be at least 1")
		}

		log := newLogger("load")
		cfg := connectionConfig()
		cfg.Table = loadTable
		ctx := cmd.Context()

		clients := make([]driver.Client, loadWorkers)
		for i := range clients {
			client, err := driver.Open(cfg, log)
			if err != nil {
				return err
			}
			if err := client.Init(ctx); err != nil {
				return err
			}
			clients[i] = client
		}
		defer func() {
			for _, client := range clients {
				client.Cleanup(context.Background())
			}
		}()

		var (
			wg       sync.WaitGroup
			mu       sync.Mutex
			inserted int
			failed   int
		)
		start := time.Now()
		for w := 0; w < loadWorkers; w++ {
			wg.Add(1)
			go func(worker int) {
				defer wg.Done()
				ok, bad := 0, 0
				for i := worker; i < loadRecords; i += loadWorkers {
					key := fmt.Sprintf("%s%010d", loadKeyPrefix, i)
					row := make(driver.Row, loadFieldCount)
					for f := 0; f < loadFieldCount; f++ {
						seed := int64(i)*int64(loadFieldCount) + int64(f)
						row[fmt.Sprintf("field%d", f)] = driver.Lazy(seed, loadFieldLen)
					}
					if clients[worker].Insert(ctx, loadTable, key, row).IsOK() {
						ok++
					} else {
						bad++
					}
				}
				mu.Lock()
				inserted += ok
				failed += bad
				mu.Unlock()
			}(w)
		}
		wg.Wait()

		took := time.Since(start)
		rate := float64(inserted) / took.Seconds()
		fmt.Printf("loaded %d records (%d failed) in %s, %.0f records/s\n",
			inserted, failed, took.Round(time.Millisecond), rate)
		if failed > 0 {
			return fmt.Errorf("%d inserts failed", failed)
		}
		return nil
	},
}

func init() {
	loadCmd.Flags().StringVar(&loadTable, "table", "usertable", "Table or collection to load into")
	loadCmd.Flags().IntVar(&loadWorkers, "workers", 1, "Concurrent workers, one client each")
	loadCmd.Flags().IntVar(&loadRecords, "records", 1000, "Number of records to insert")
	loadCmd.Flags().IntVar(&loadFieldCount, "fields", 10, "Fields per record")
	loadCmd.Flags().IntVar(&loadFieldLen, "field-length", 100, "Bytes per field")
	loadCmd.Flags().StringVar(&loadKeyPrefix, "key-prefix", "user", "Record key prefix")
}
