package ckit

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/arthur-debert/claude-kit/pkg/bundles"
	"github.com/arthur-debert/claude-kit/pkg/catalog"
	"github.com/arthur-debert/claude-kit/pkg/display"
	"github.com/spf13/cobra"
)

func newListCmd(kitRoot *string) *cobra.Command {
	var bundle string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List bundles, or the components of one bundle",
		Long: `Without flags, list shows every bundle defined in the kit. With
--bundle it fully resolves the bundle and shows each component with its
target path; skills additionally show the description from their
SKILL.md front matter.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*kitRoot)
			if err != nil {
				return err
			}
			cat, err := catalog.New(cfg.KitRoot)
			if err != nil {
				return err
			}

			if bundle == "" {
				return listBundles(cat)
			}
			return listComponents(cat, bundle)
		},
	}

	cmd.Flags().StringVar(&bundle, "bundle", "", "Bundle to resolve and list")

	return cmd
}

func listBundles(cat *catalog.Catalog) error {
	names, err := bundleNames(filepath.Join(cat.Root(), catalog.BundlesDir), "")
	if err != nil {
		return err
	}
	skillNames, err := bundleNames(filepath.Join(cat.Root(), catalog.BundlesDir, catalog.SkillsDir), "skills/")
	if err != nil {
		return err
	}
	names = append(names, skillNames...)
	sort.Strings(names)

	for _, name := range names {
		fmt.Printf("@%s\n", name)
	}
	return nil
}

func bundleNames(dir, prefix string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".txt") {
			continue
		}
		names = append(names, prefix+strings.TrimSuffix(e.Name(), ".txt"))
	}
	return names, nil
}

func listComponents(cat *catalog.Catalog, bundle string) error {
	resolver := bundles.NewResolver(cat)
	resolved, err := resolver.ResolveBundle(bundle)
	if err != nil {
		return err
	}

	for _, entry := range resolved.Components {
		line := fmt.Sprintf("%-40s -> %s", entry.Ref, entry.Target)
		if entry.IsDir {
			if meta, err := bundles.LoadSkillMeta(entry.Source); err == nil && meta.Description != "" {
				line += fmt.Sprintf("  # %s", meta.Description)
			}
		}
		fmt.Println(line)
	}

	// Catalog-level target duplicates are a kit defect worth flagging
	// even in a read-only listing.
	display.RenderDuplicates(os.Stderr, resolved.Duplicates)
	return nil
}
