package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"crease/internal/driver"
	"crease/internal/foldcache"
	"crease/internal/source"
	"crease/internal/ui"
)

var (
	foldFlavor          string
	foldCollapse        []string
	foldInitialCollapse bool
	foldJobs            int
	foldNoCache         bool
	foldFormat          string
	foldUI              bool
)

func init() {
	foldCmd.Flags().StringVar(&foldFlavor, "flavor", "", "markdown flavor (gfm|commonmark)")
	foldCmd.Flags().StringSliceVar(&foldCollapse, "collapse", nil, "node kinds collapsed on first fold (fence,code,quote,list,html,comment,table)")
	foldCmd.Flags().BoolVar(&foldInitialCollapse, "collapse-initial", false, "mark the collapse kinds as collapsed in the output")
	foldCmd.Flags().IntVar(&foldJobs, "jobs", 0, "worker parallelism (0 = all cores)")
	foldCmd.Flags().BoolVar(&foldNoCache, "no-cache", false, "skip the on-disk result cache")
	foldCmd.Flags().StringVar(&foldFormat, "format", "text", "output format (text|json)")
	foldCmd.Flags().BoolVar(&foldUI, "ui", false, "show interactive progress (requires a terminal)")
}

var foldCmd = &cobra.Command{
	Use:          "fold [paths...]",
	Short:        "Compute folding regions for markdown files",
	Long:         `Compute folding regions for the given markdown files or directories. Directories are walked for *.md and *.markdown files. Defaults come from the nearest crease.toml.`,
	SilenceUsage: true,
	RunE:         runFold,
}

func runFold(cmd *cobra.Command, args []string) error {
	opts, cache, err := foldOptionsFromConfig(cmd)
	if err != nil {
		return err
	}
	opts.Cache = cache

	paths, err := expandPaths(args)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return fmt.Errorf("no markdown files found")
	}

	quiet, _ := cmd.Flags().GetBool("quiet")

	var fileSet *source.FileSet
	var results []driver.FileResult
	if foldUI && isTerminal(os.Stdout) && foldFormat == "text" {
		fileSet, results, err = runFoldWithUI(cmd.Context(), "folding markdown", paths, opts)
	} else {
		fileSet, results, err = driver.FoldPaths(cmd.Context(), paths, opts)
	}
	if err != nil {
		return err
	}

	switch foldFormat {
	case "json":
		return renderFoldJSON(cmd.OutOrStdout(), fileSet, results)
	case "text":
		if !quiet {
			width := 80
			if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
				width = w
			}
			ui.PrintResults(cmd.OutOrStdout(), fileSet, results, width)
		}
	default:
		return fmt.Errorf("unsupported format %q (must be text or json)", foldFormat)
	}

	for _, res := range results {
		if res.Err != nil {
			return fmt.Errorf("%d file(s) failed", countErrors(results))
		}
	}
	return nil
}

// foldOptionsFromConfig merges the nearest crease.toml with the command
// flags; explicit flags win.
func foldOptionsFromConfig(cmd *cobra.Command) (driver.Options, *foldcache.Cache, error) {
	var opts driver.Options

	manifest, found, err := loadProjectManifest(".")
	if err != nil {
		return opts, nil, err
	}

	flavorName := foldFlavor
	collapseNames := foldCollapse
	cacheOn := !foldNoCache
	if found {
		cfg := manifest.Config
		if flavorName == "" {
			flavorName = cfg.Fold.Flavor
		}
		if collapseNames == nil {
			collapseNames = cfg.Fold.Collapse
		}
		if !cmd.Flags().Changed("collapse-initial") {
			foldInitialCollapse = cfg.Fold.InitialCollapse
		}
		if !cmd.Flags().Changed("jobs") {
			foldJobs = cfg.Fold.Jobs
		}
		if !foldNoCache {
			cacheOn = cfg.cacheEnabled()
		}
	}

	flavor, err := parseFlavor(flavorName)
	if err != nil {
		return opts, nil, err
	}
	kinds, err := collapseKinds(collapseNames)
	if err != nil {
		return opts, nil, err
	}

	opts.Flavor = flavor
	opts.Collapsed = kinds
	opts.InitialCollapse = foldInitialCollapse
	opts.Jobs = foldJobs

	var cache *foldcache.Cache
	if cacheOn {
		cache, err = foldcache.Open("crease")
		if err != nil {
			// A broken cache dir degrades to uncached runs.
			fmt.Fprintf(os.Stderr, "crease: cache disabled: %v\n", err)
			cache = nil
		}
	}
	return opts, cache, nil
}

// expandPaths resolves arguments into markdown file paths. Directories are
// walked; files are taken as-is. No arguments means the working directory.
func expandPaths(args []string) ([]string, error) {
	if len(args) == 0 {
		args = []string{"."}
	}
	var paths []string
	seen := make(map[string]struct{})
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if info.IsDir() {
			files, err := driver.ListMarkdownFiles(arg)
			if err != nil {
				return nil, err
			}
			for _, file := range files {
				if _, ok := seen[file]; !ok {
					seen[file] = struct{}{}
					paths = append(paths, file)
				}
			}
			continue
		}
		if _, ok := seen[arg]; !ok {
			seen[arg] = struct{}{}
			paths = append(paths, arg)
		}
	}
	sort.Strings(paths)
	return paths, nil
}

type foldRegionPayload struct {
	StartLine int  `json:"startLine"`
	EndLine   int  `json:"endLine"`
	Collapsed bool `json:"collapsed,omitempty"`
}

type foldFilePayload struct {
	Path        string              `json:"path"`
	Regions     []foldRegionPayload `json:"regions"`
	Cached      bool                `json:"cached,omitempty"`
	BadMappings int                 `json:"badMappings,omitempty"`
	Error       string              `json:"error,omitempty"`
}

func renderFoldJSON(out io.Writer, fileSet *source.FileSet, results []driver.FileResult) error {
	payload := make([]foldFilePayload, 0, len(results))
	for _, res := range results {
		entry := foldFilePayload{Path: res.Path, Regions: []foldRegionPayload{}}
		if res.Err != nil {
			entry.Error = res.Err.Error()
			payload = append(payload, entry)
			continue
		}
		entry.Cached = res.FromCache
		entry.BadMappings = res.Stats.BadMappings
		f := fileSet.Get(res.FileID)
		for _, region := range res.Regions {
			startLine, ok := f.LineOfOffset(region.Start)
			if !ok {
				continue
			}
			end := region.End
			if end > region.Start {
				end--
			}
			endLine, ok := f.LineOfOffset(end)
			if !ok {
				endLine = startLine
			}
			entry.Regions = append(entry.Regions, foldRegionPayload{
				StartLine: int(startLine),
				EndLine:   int(endLine),
				Collapsed: region.Collapsed,
			})
		}
		payload = append(payload, entry)
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(payload)
}

func countErrors(results []driver.FileResult) int {
	n := 0
	for _, res := range results {
		if res.Err != nil {
			n++
		}
	}
	return n
}
