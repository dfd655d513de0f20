package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/aquanode/aqua-engine/core/backup"
	"github.com/aquanode/aqua-engine/storage"
)

var (
	backupDir        string
	restoreFile      string
	periodicInterval int

	backupCmd = &cobra.Command{
		Use:   "backup",
		Short: "Backup workflow storage",
		Long: `Backup the badger database to a directory.

Backups are stored as /backup_dir/yy-mm-dd-hh-mm/full-backup.db.
Use --interval to keep backing up periodically (minutes, 0 means one-time).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, lg, err := mustLoadConfig()
			if err != nil {
				return err
			}
			defer lg.Sync()

			db, err := storage.NewWithPath(cfg.Storage.Path)
			if err != nil {
				return err
			}
			defer db.Close()

			service := backup.NewService(lg, db, backupDir)

			if periodicInterval > 0 {
				if err := service.StartPeriodicBackup(time.Duration(periodicInterval) * time.Minute); err != nil {
					return err
				}
				select {} // run until killed
			}

			backupFile, err := service.PerformBackup()
			if err != nil {
				return err
			}
			fmt.Printf("backup written to %s\n", backupFile)
			return nil
		},
	}

	restoreCmd = &cobra.Command{
		Use:   "restore",
		Short: "Restore workflow storage from a backup",
		Long: `Restore the badger database from a backup file created by the
backup command. The node must not be running during a restore.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, lg, err := mustLoadConfig()
			if err != nil {
				return err
			}
			defer lg.Sync()

			db, err := storage.NewWithPath(cfg.Storage.Path)
			if err != nil {
				return err
			}
			defer db.Close()

			return backup.NewService(lg, db, "").Restore(restoreFile)
		},
	}
)

func init() {
	backupCmd.Flags().StringVar(&backupDir, "dir", "./backups", "directory to store backups in")
	backupCmd.Flags().IntVar(&periodicInterval, "interval", 0, "backup interval in minutes, 0 for one-time")
	restoreCmd.Flags().StringVar(&restoreFile, "file", "", "backup file to restore from")
	restoreCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(backupCmd)
	rootCmd.AddCommand(restoreCmd)
}
