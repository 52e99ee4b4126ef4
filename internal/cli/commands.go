package cli

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/rulealign/rulealign/internal/config"
	"github.com/rulealign/rulealign/internal/hashing"
	"github.com/rulealign/rulealign/internal/model"
	"github.com/rulealign/rulealign/internal/overlay"
	"github.com/rulealign/rulealign/internal/progress"
	"github.com/rulealign/rulealign/internal/syncer"
	"github.com/rulealign/rulealign/internal/trust"
	"github.com/rulealign/rulealign/internal/ui"
)

// titleCaser renders target names for display (cursor -> Cursor).
var titleCaser = cases.Title(language.English)

// syncCommand creates the sync command.
func syncCommand() *cli.Command {
	return &cli.Command{
		Name:  "sync",
		Usage: "Synchronize every configured agent file with the rule document",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "force",
				Aliases: []string{"f"},
				Usage:   "Overwrite conflicting files and bypass the trust gate",
			},
			&cli.BoolFlag{
				Name:    "interactive",
				Aliases: []string{"i"},
				Usage:   "Resolve checksum conflicts interactively",
			},
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: "Show what would change without writing anything",
			},
		},
		Action: runSync,
	}
}

func runSync(ctx context.Context, cmd *cli.Command) error {
	cfg, _, err := loadProjectConfig(cmd)
	if err != nil {
		return err
	}

	opts := syncer.Options{
		Force:       cmd.Bool("force"),
		Interactive: cmd.Bool("interactive"),
		DryRun:      cmd.Bool("dry-run"),
	}
	if opts.Interactive {
		resolver, err := NewConflictResolver()
		if err != nil {
			return err
		}
		opts.OnConflict = resolver.Decide
	}

	bar := progress.Simple(int64(len(cfg.Targets)), "Syncing")
	opts.OnTarget = func(name string) {
		bar.Describe(fmt.Sprintf("Syncing %s", titleCaser.String(name)))
		_ = bar.Add(1)
	}

	s := syncer.New(cfg, defaultRegistry())
	result, err := s.Run(ctx, opts)
	_ = bar.Finish()
	if err != nil {
		return err
	}

	fmt.Print(result.Summary())
	if !result.Success() {
		return fmt.Errorf("sync completed with errors")
	}
	return nil
}

// checkCommand creates the check command.
func checkCommand() *cli.Command {
	return &cli.Command{
		Name:   "check",
		Usage:  "Report document schema, integrity, overlay and trust health",
		Action: runCheck,
	}
}

func runCheck(ctx context.Context, cmd *cli.Command) error {
	cfg, _, err := loadProjectConfig(cmd)
	if err != nil {
		return err
	}

	report, err := syncer.New(cfg, defaultRegistry()).Check()
	if err != nil {
		return err
	}

	fmt.Println(ui.Header("Rule document health"))
	fmt.Printf("  Source: %s\n", report.Source)
	fmt.Printf("  Bundle hash: %s\n\n", hashing.Prefixed(report.BundleHash))

	if report.Schema.Valid() {
		fmt.Println(ui.StatusSuccess("schema valid"))
	} else {
		fmt.Println(ui.StatusError("schema invalid"))
		for _, e := range report.Schema.Errors {
			fmt.Printf("    %s\n", e)
		}
	}
	for _, w := range report.Schema.Warnings {
		fmt.Println(ui.StatusWarning(w))
	}

	if report.Integrity.Valid {
		fmt.Println(ui.StatusSuccess("integrity verified"))
	} else {
		fmt.Println(ui.StatusError("integrity: " + report.Integrity.Reason))
	}

	for _, h := range report.OverlayHealth {
		if h.Healthy {
			fmt.Println(ui.StatusSuccess(fmt.Sprintf("overlay %s is healthy", h.Selector)))
		} else {
			fmt.Println(ui.StatusWarning(fmt.Sprintf("overlay %s is stale: %s", h.Selector, h.Reason)))
		}
	}

	if cfg.SyncMode() == model.ModeTeam {
		if report.BundleApproved {
			fmt.Println(ui.StatusSuccess("bundle hash is approved"))
		} else {
			fmt.Println(ui.StatusError("bundle hash is not in the allow-list"))
		}
		if report.LockfileCurrent {
			fmt.Println(ui.StatusSuccess("lockfile matches the bundle hash"))
		} else {
			fmt.Println(ui.StatusWarning("lockfile is out of date; the document changed since the last approved sync"))
		}
	}

	if !report.Healthy() {
		return fmt.Errorf("check found problems")
	}
	return nil
}

// extractCommand creates the extract command.
func extractCommand() *cli.Command {
	return &cli.Command{
		Name:      "extract",
		Usage:     "Recover foreign sections from a target into the extraction log",
		ArgsUsage: "<target>",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: "Report what would be extracted without writing the log",
			},
		},
		Action: runExtract,
	}
}

func runExtract(ctx context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() != 1 {
		return fmt.Errorf("usage: rulealign extract <target>")
	}
	target := cmd.Args().First()

	cfg, _, err := loadProjectConfig(cmd)
	if err != nil {
		return err
	}

	count, err := syncer.New(cfg, defaultRegistry()).ExtractTarget(target, cmd.Bool("dry-run"))
	if err != nil {
		return err
	}

	if count == 0 {
		fmt.Println(ui.StatusSkipped(fmt.Sprintf("nothing new in %s", titleCaser.String(target))))
		return nil
	}
	fmt.Println(ui.StatusExtracted(fmt.Sprintf("extracted %d section(s) from %s into %s",
		count, titleCaser.String(target), cfg.Extraction.Log)))
	return nil
}

// hashCommand creates the hash command.
func hashCommand() *cli.Command {
	return &cli.Command{
		Name:   "hash",
		Usage:  "Print the canonical content hash of the rule document",
		Action: runHash,
	}
}

func runHash(ctx context.Context, cmd *cli.Command) error {
	cfg, _, err := loadProjectConfig(cmd)
	if err != nil {
		return err
	}

	doc, err := model.LoadDocumentFile(cfg.Source)
	if err != nil {
		return err
	}

	fmt.Printf("content: %s\n", hashing.Prefixed(hashing.ComputeContentHash(doc)))

	if len(doc.Overlays) > 0 {
		applied := overlay.Apply(doc, doc.Overlays)
		fmt.Printf("bundle:  %s\n", hashing.Prefixed(hashing.ComputeContentHash(applied.Document)))
	}
	return nil
}

// approveCommand creates the approve command.
func approveCommand() *cli.Command {
	return &cli.Command{
		Name:      "approve",
		Usage:     "Add a bundle hash to the allow-list (defaults to the current document's)",
		ArgsUsage: "[hash]",
		Action:    runApprove,
	}
}

func runApprove(ctx context.Context, cmd *cli.Command) error {
	cfg, _, err := loadProjectConfig(cmd)
	if err != nil {
		return err
	}

	bundleHash := cmd.Args().First()
	if bundleHash == "" {
		doc, err := model.LoadDocumentFile(cfg.Source)
		if err != nil {
			return err
		}
		applied := overlay.Apply(doc, doc.Overlays)
		bundleHash = hashing.ComputeContentHash(applied.Document)
	}

	list, err := trust.LoadAllowList(cfg.Trust.AllowList)
	if err != nil {
		return err
	}

	if !list.Approve(bundleHash) {
		fmt.Println(ui.StatusSkipped(fmt.Sprintf("%s is already approved", hashing.Prefixed(bundleHash))))
		return nil
	}
	if err := list.Save(cfg.Trust.AllowList); err != nil {
		return err
	}
	fmt.Println(ui.StatusSuccess(fmt.Sprintf("approved %s", hashing.Prefixed(bundleHash))))
	return nil
}

// configCommand creates the config command with its subcommands.
func configCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Inspect or initialize the project configuration",
		Commands: []*cli.Command{
			{
				Name:   "show",
				Usage:  "Print the resolved configuration",
				Action: runConfigShow,
			},
			{
				Name:   "init",
				Usage:  "Write a default rulealign.yaml into the project",
				Action: runConfigInit,
			},
		},
	}
}

func runConfigShow(ctx context.Context, cmd *cli.Command) error {
	cfg, _, err := loadProjectConfig(cmd)
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	fmt.Print(string(data))
	return nil
}

func runConfigInit(ctx context.Context, cmd *cli.Command) error {
	projectDir := cmd.String("project")
	if projectDir == "" {
		projectDir = "."
	}

	if config.Exists(projectDir) {
		return fmt.Errorf("%s already exists", config.FilePath(projectDir))
	}
	if err := config.Default(projectDir).Save(projectDir); err != nil {
		return err
	}
	fmt.Println(ui.StatusSuccess("wrote " + config.FilePath(projectDir)))
	return nil
}
