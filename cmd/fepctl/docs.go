// cmd/fepctl/docs.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"fep-agent/internal/common/vectorindex"
)

func newDocsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "docs",
		Short: "Manage the policy document index",
	}
	cmd.AddCommand(newDocsIngestCmd(a))
	cmd.AddCommand(newDocsListCmd(a))
	cmd.AddCommand(newDocsDeleteCmd(a))
	return cmd
}

func newDocsIngestCmd(a *app) *cobra.Command {
	var (
		concurrency int
		replace     bool
	)
	cmd := &cobra.Command{
		Use:   "ingest <path>...",
		Short: "Chunk, embed and index policy documents",
		Long: `Ingest reads each file (directories are walked), splits it into
overlapping chunks on paragraph, line and word boundaries, embeds every chunk
and indexes it under the file's base name. Plain-text and Markdown files are
read directly; everything else goes through the OCR service.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Minute)
			defer cancel()

			files, err := collectFiles(args)
			if err != nil {
				return err
			}
			store, err := a.openStore(ctx)
			if err != nil {
				return fmt.Errorf("open index: %w", err)
			}
			if err := store.EnsureIndex(ctx); err != nil {
				return err
			}
			return a.ingest(ctx, store, files, concurrency, replace)
		},
	}
	cmd.Flags().IntVar(&concurrency, "concurrency", 2, "files processed at once")
	cmd.Flags().BoolVar(&replace, "replace", false, "delete existing chunks of a document before indexing it")
	return cmd
}

func (a *app) ingest(ctx context.Context, store vectorindex.Store, files []string, concurrency int, replace bool) error {
	splitter := vectorindex.NewSplitter(a.cfg.RAG.ChunkSize, a.cfg.RAG.ChunkOverlap)
	if concurrency < 1 {
		concurrency = 1
	}

	var mu sync.Mutex
	report := func(format string, args ...interface{}) {
		mu.Lock()
		defer mu.Unlock()
		fmt.Fprintf(a.out, format, args...)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for _, path := range files {
		path := path
		g.Go(func() error {
			name := filepath.Base(path)
			extraction, err := a.extractor.Extract(ctx, path)
			if err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			chunks := splitter.Chunks(name, extraction.Text)
			if len(chunks) == 0 {
				a.log.Warn("no text extracted, skipping", map[string]interface{}{"file": name})
				report("skipped %s: no text\n", name)
				return nil
			}
			if replace {
				removed, err := store.DeleteDocument(ctx, name)
				if err != nil {
					return fmt.Errorf("%s: %w", name, err)
				}
				if removed > 0 {
					a.log.Info("replaced existing chunks", map[string]interface{}{"file": name, "removed": removed})
				}
			}
			if err := store.AddChunks(ctx, chunks); err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			report("indexed %s: %d chunks\n", name, len(chunks))
			return nil
		})
	}
	return g.Wait()
}

// collectFiles expands directories into their regular, non-hidden files.
func collectFiles(args []string) ([]string, error) {
	var files []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			files = append(files, arg)
			continue
		}
		err = filepath.WalkDir(arg, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if strings.HasPrefix(d.Name(), ".") && path != arg {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if d.Type().IsRegular() {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no files to ingest")
	}
	return files, nil
}

func newDocsListCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List indexed documents and their chunk counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openStore(cmd.Context())
			if err != nil {
				return fmt.Errorf("open index: %w", err)
			}
			docs, err := store.ListDocuments(cmd.Context())
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(a.out)
				enc.SetIndent("", "  ")
				return enc.Encode(docs)
			}
			tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "DOCUMENT\tCHUNKS")
			for _, d := range docs {
				fmt.Fprintf(tw, "%s\t%d\n", d.Name, d.Chunks)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "output JSON")
	return cmd
}

func newDocsDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete every chunk of a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openStore(cmd.Context())
			if err != nil {
				return fmt.Errorf("open index: %w", err)
			}
			n, err := store.DeleteDocument(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if n == 0 {
				return fmt.Errorf("document %q is not indexed", args[0])
			}
			fmt.Fprintf(a.out, "deleted %s: %d chunks\n", args[0], n)
			return nil
		},
	}
}
