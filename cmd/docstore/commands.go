package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/docstore/docstore/types"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	flagSort    string
	flagSkip    int
	flagLimit   int
	flagProject string
	flagMulti   bool
	flagUpsert  bool
	flagUnique  bool
	flagSparse  bool
)

func init() {
	findCmd.Flags().StringVar(&flagSort, "sort", "", "comma-separated sort keys, prefix with - for descending (e.g. -age,name)")
	findCmd.Flags().IntVar(&flagSkip, "skip", -1, "number of results to skip")
	findCmd.Flags().IntVar(&flagLimit, "limit", -1, "maximum number of results")
	findCmd.Flags().StringVar(&flagProject, "project", "", "comma-separated fields to include")

	updateCmd.Flags().BoolVar(&flagMulti, "multi", true, "update all matches instead of the first")
	updateCmd.Flags().BoolVar(&flagUpsert, "upsert", false, "insert from the query when nothing matches")
	deleteCmd.Flags().BoolVar(&flagMulti, "multi", true, "delete all matches instead of the first")

	indexCmd.Flags().BoolVar(&flagUnique, "unique", false, "enforce uniqueness on the indexed field")
	indexCmd.Flags().BoolVar(&flagSparse, "sparse", false, "mark the index sparse")

	rootCmd.AddCommand(collectionsCmd, insertCmd, findCmd, updateCmd,
		deleteCmd, countCmd, indexCmd, dropCmd, exportCmd)
}

func parseJSONArg(arg string, optional bool) (types.Document, error) {
	if arg == "" {
		if optional {
			return types.Document{}, nil
		}
		return nil, fmt.Errorf("empty JSON argument")
	}
	var doc types.Document
	if err := json.Unmarshal([]byte(arg), &doc); err != nil {
		return nil, fmt.Errorf("invalid JSON %q: %w", arg, err)
	}
	return doc, nil
}

func parseFindOptions() types.FindOptions {
	var opts types.FindOptions
	if flagSort != "" {
		for _, key := range strings.Split(flagSort, ",") {
			key = strings.TrimSpace(key)
			if key == "" {
				continue
			}
			direction := 1
			if strings.HasPrefix(key, "-") {
				direction = -1
				key = key[1:]
			}
			opts.Sort = append(opts.Sort, types.SortKey{Field: key, Direction: direction})
		}
	}
	if flagSkip >= 0 {
		skip := flagSkip
		opts.Skip = &skip
	}
	if flagLimit >= 0 {
		limit := flagLimit
		opts.Limit = &limit
	}
	if flagProject != "" {
		opts.Projection = make(map[string]any)
		for _, field := range strings.Split(flagProject, ",") {
			if field = strings.TrimSpace(field); field != "" {
				opts.Projection[field] = 1
			}
		}
	}
	return opts
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

var collectionsCmd = &cobra.Command{
	Use:   "collections",
	Short: "List collections in the database",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDatabase()
		if err != nil {
			return err
		}
		names, err := db.Collections()
		if err != nil {
			return err
		}
		for _, name := range names {
			fmt.Println(name)
		}
		return nil
	},
}

var insertCmd = &cobra.Command{
	Use:   "insert <collection> <json>...",
	Short: "Insert one or more JSON documents",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDatabase()
		if err != nil {
			return err
		}
		docs := make([]types.Document, 0, len(args)-1)
		for _, arg := range args[1:] {
			doc, err := parseJSONArg(arg, false)
			if err != nil {
				return err
			}
			docs = append(docs, doc)
		}
		inserted, err := db.Collection(args[0]).InsertMany(docs)
		if err != nil {
			return err
		}
		return printJSON(inserted)
	},
}

var findCmd = &cobra.Command{
	Use:   "find <collection> [query-json]",
	Short: "Find documents matching a query",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDatabase()
		if err != nil {
			return err
		}
		query, err := parseQueryArg(args)
		if err != nil {
			return err
		}
		docs, err := db.Collection(args[0]).Find(query, parseFindOptions())
		if err != nil {
			return err
		}
		return printJSON(docs)
	},
}

var updateCmd = &cobra.Command{
	Use:   "update <collection> <query-json> <update-json>",
	Short: "Update documents matching a query",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDatabase()
		if err != nil {
			return err
		}
		query, err := parseJSONArg(args[1], true)
		if err != nil {
			return err
		}
		update, err := parseJSONArg(args[2], false)
		if err != nil {
			return err
		}
		multi := flagMulti
		res, err := db.Collection(args[0]).Update(types.Query(query), update,
			types.UpdateOptions{Multi: &multi, Upsert: flagUpsert})
		if err != nil {
			return err
		}
		fmt.Printf("modified %d, upserted %d\n", res.Modified, res.Upserted)
		return nil
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete <collection> <query-json>",
	Short: "Delete documents matching a query",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDatabase()
		if err != nil {
			return err
		}
		query, err := parseJSONArg(args[1], true)
		if err != nil {
			return err
		}
		multi := flagMulti
		n, err := db.Collection(args[0]).Delete(types.Query(query),
			types.DeleteOptions{Multi: &multi})
		if err != nil {
			return err
		}
		fmt.Printf("deleted %d\n", n)
		return nil
	},
}

var countCmd = &cobra.Command{
	Use:   "count <collection> [query-json]",
	Short: "Count documents matching a query",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDatabase()
		if err != nil {
			return err
		}
		query, err := parseQueryArg(args)
		if err != nil {
			return err
		}
		n, err := db.Collection(args[0]).Count(query)
		if err != nil {
			return err
		}
		fmt.Println(n)
		return nil
	},
}

var indexCmd = &cobra.Command{
	Use:   "index <collection> <field>",
	Short: "Create a secondary index on a field",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDatabase()
		if err != nil {
			return err
		}
		return db.Collection(args[0]).CreateIndex(args[1],
			types.IndexOptions{Unique: flagUnique, Sparse: flagSparse})
	},
}

var dropCmd = &cobra.Command{
	Use:   "drop <collection>",
	Short: "Drop a collection and its backing file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDatabase()
		if err != nil {
			return err
		}
		return db.DropCollection(args[0])
	},
}

var exportCmd = &cobra.Command{
	Use:   "export <collection>",
	Short: "Export a collection's documents as YAML",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDatabase()
		if err != nil {
			return err
		}
		docs, err := db.Collection(args[0]).Find(types.Query{}, types.FindOptions{})
		if err != nil {
			return err
		}
		out, err := yaml.Marshal(docs)
		if err != nil {
			return fmt.Errorf("failed to marshal documents: %w", err)
		}
		_, err = os.Stdout.Write(out)
		return err
	},
}

func parseQueryArg(args []string) (types.Query, error) {
	if len(args) < 2 {
		return types.Query{}, nil
	}
	doc, err := parseJSONArg(args[1], true)
	if err != nil {
		return nil, err
	}
	return types.Query(doc), nil
}
