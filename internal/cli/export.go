package cli

import (
	"bytes"
	"fmt"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"course-admin/internal/export"
	"course-admin/internal/sftpclient"
)

const defaultExportFile = "catalog.csv"

func (a *App) newExportCmd() *cobra.Command {
	var (
		out     string
		publish bool
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the catalog as CSV",
		Long: `Export the catalog as CSV. Use --out - to write to stdout.

With --sftp the file is also published to SFTP_DIR on SFTP_HOST.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)
			courses, err := a.client().ListCourses(ctx)
			if err != nil {
				return err
			}

			var buf bytes.Buffer
			if err := export.WriteCatalogCSV(&buf, courses); err != nil {
				return fmt.Errorf("export: write csv: %w", err)
			}

			remoteName := defaultExportFile
			if out == "-" {
				if _, err := a.out.Write(buf.Bytes()); err != nil {
					return err
				}
			} else {
				if err := export.WriteCatalogCSVFile(out, courses); err != nil {
					return err
				}
				remoteName = filepath.Base(out)
				a.logger.Info("catalog exported", "file", out, "courses", len(courses))
				fmt.Fprintf(a.errOut, "%s %d courses to %s\n", color.GreenString("Exported"), len(courses), out)
			}

			if !publish {
				return nil
			}
			remote, err := sftpclient.Publish(ctx, a.sftpConfig(), remoteName, &buf)
			if err != nil {
				return err
			}
			a.logger.Info("catalog published", "remote", remote)
			fmt.Fprintf(a.errOut, "%s %s\n", color.GreenString("Published"), remote)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", defaultExportFile, "Output file, - for stdout")
	cmd.Flags().BoolVar(&publish, "sftp", false, "Publish the file over SFTP")
	return cmd
}

func (a *App) sftpConfig() sftpclient.Config {
	return sftpclient.Config{
		Host:                  a.cfg.SFTPHost,
		Port:                  a.cfg.SFTPPort,
		User:                  a.cfg.SFTPUser,
		Pass:                  a.cfg.SFTPPass,
		RemoteDir:             a.cfg.SFTPDir,
		InsecureIgnoreHostKey: a.cfg.SFTPInsecureIgnoreHostKey,
		KnownHostsFile:        a.cfg.SFTPKnownHosts,
	}
}
