// Command pagedb is a small CLI demo over the pagedb library: put/get/del
// against a named collection in a single file.
package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/nainya/pagedb"
	"github.com/nainya/pagedb/internal/logger"
)

var (
	dbPath     string
	collection string
)

func main() {
	logger.InitGlobalLogger(logger.Config{Level: "info", Pretty: true})

	root := &cobra.Command{
		Use:   "pagedb",
		Short: "Inspect and modify a pagedb file",
	}
	root.PersistentFlags().StringVar(&dbPath, "db", "pagedb.db", "path to the database file")
	root.PersistentFlags().StringVar(&collection, "collection", "default", "collection name")

	root.AddCommand(putCmd(), getCmd(), delCmd(), createCollectionCmd(), listCmd(), serveMetricsCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func openDB() (*pagedb.DB, error) {
	return pagedb.Open(dbPath, pagedb.DefaultOptions())
}

func putCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "put <key> <value>",
		Short: "Insert or overwrite a key",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			return db.Update(func(tx *pagedb.Transaction) error {
				c, err := tx.GetCollection(collection)
				if err == pagedb.ErrCollectionNotFound {
					c, err = tx.CreateCollection(collection)
				}
				if err != nil {
					return err
				}
				return c.Put([]byte(args[0]), []byte(args[1]))
			})
		},
	}
}

func getCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Look up a key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			return db.View(func(tx *pagedb.Transaction) error {
				c, err := tx.GetCollection(collection)
				if err != nil {
					return err
				}
				val, err := c.Find([]byte(args[0]))
				if err != nil {
					return err
				}
				fmt.Println(string(val))
				return nil
			})
		},
	}
}

func delCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "del <key>",
		Short: "Remove a key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			return db.Update(func(tx *pagedb.Transaction) error {
				c, err := tx.GetCollection(collection)
				if err != nil {
					return err
				}
				return c.Remove([]byte(args[0]))
			})
		},
	}
}

func createCollectionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create-collection",
		Short: "Create the collection named by --collection",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			return db.Update(func(tx *pagedb.Transaction) error {
				_, err := tx.CreateCollection(collection)
				return err
			})
		},
	}
}

func serveMetricsCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve-metrics",
		Short: "Open the database and expose its Prometheus metrics over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			fmt.Fprintf(os.Stderr, "serving metrics on %s/metrics\n", addr)
			return http.ListenAndServe(addr, mux)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":9090", "listen address for the metrics endpoint")
	return cmd
}

func listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Print every key/value pair in the collection, in order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			return db.View(func(tx *pagedb.Transaction) error {
				c, err := tx.GetCollection(collection)
				if err != nil {
					return err
				}
				it, err := c.Iterator()
				if err != nil {
					return err
				}
				for it.Next() {
					k, v := it.Item()
					fmt.Printf("%s=%s\n", k, v)
				}
				return it.Err()
			})
		},
	}
}
