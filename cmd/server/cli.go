package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/diewo77/go-assets/internal/models"
)

// One-shot commands. Each runs as the account given by -user/-password
// and exits instead of starting the server.
var (
	backupNowFlag = flag.Bool("backup-now", false, "Take a database snapshot and exit")
	cleanupFlag   = flag.Bool("cleanup-backups", false, "Remove expired snapshots and exit")
	reportFlag    = flag.String("report", "", "Write the named report (asset_list, depreciation, ageing, lifecycle, warranty, maintenance) and exit")
	exportFlag    = flag.String("export", "", "Export all assets to this .xlsx file and exit")
	importFlag    = flag.String("import", "", "Import assets from this .xlsx file and exit")
	templateFlag  = flag.String("template", "", "Write the import template to this .xlsx file and exit")
	userFlag      = flag.String("user", "admin", "Account used by one-shot commands")
	passwordFlag  = flag.String("password", "", "Password of -user (defaults to $ASSETS_PASSWORD)")
)

// runCommand runs the one-shot command selected on the command line. It
// reports false when none was given.
func runCommand(ctx context.Context, svc Services) (bool, error) {
	if !*backupNowFlag && !*cleanupFlag && *reportFlag == "" && *exportFlag == "" && *importFlag == "" && *templateFlag == "" {
		return false, nil
	}
	password := *passwordFlag
	if password == "" {
		password = os.Getenv("ASSETS_PASSWORD")
	}
	actor, err := svc.Users.Login(ctx, *userFlag, password)
	if err != nil {
		return true, fmt.Errorf("login as %s: %w", *userFlag, err)
	}

	switch {
	case *backupNowFlag:
		b, err := svc.Backups.Create(ctx, actor)
		if err != nil {
			return true, err
		}
		log.Printf("Backup written to %s (%d bytes)", b.Path, b.Size)
	case *cleanupFlag:
		n, err := svc.Backups.Cleanup(ctx, actor)
		if err != nil {
			return true, err
		}
		log.Printf("Removed %d expired backups", n)
	case *reportFlag != "":
		res, err := svc.Reports.Generate(ctx, actor, *reportFlag, nil)
		if err != nil {
			return true, err
		}
		if res.Path == "" {
			log.Printf("No data for %s report", *reportFlag)
		} else {
			log.Printf("Report written to %s", res.Path)
		}
	case *exportFlag != "":
		return true, writeFile(*exportFlag, func(f *os.File) error {
			return svc.Assets.ExportAssets(ctx, actor, f, nil)
		})
	case *templateFlag != "":
		return true, writeFile(*templateFlag, func(f *os.File) error {
			return svc.Assets.ImportTemplate(ctx, actor, f)
		})
	case *importFlag != "":
		return true, importFile(ctx, svc, actor, *importFlag)
	}
	return true, nil
}

func importFile(ctx context.Context, svc Services, actor *models.User, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	res, err := svc.Assets.ImportAssets(ctx, actor, f)
	if err != nil {
		return err
	}
	log.Printf("Imported %d assets from %s", res.Imported, path)
	for _, msg := range res.Errors {
		log.Printf("  %s", msg)
	}
	return nil
}

// writeFile creates path, fills it with fn and removes it again on failure.
func writeFile(path string, fn func(f *os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	err = fn(f)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(path)
		return fmt.Errorf("write %s: %w", path, err)
	}
	log.Printf("Wrote %s", path)
	return nil
}
