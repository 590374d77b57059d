package cli

import (
	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:   "export [directory]",
	Short: "Export the archive to a portable directory",
	Long: `Writes every original file, archive rendition and thumbnail plus a
manifest.json with all metadata into the target directory. The export
can be restored into an empty archive with the import command.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := maintenanceService.Export(cmd.Context(), args[0]); err != nil {
			return err
		}
		cmd.Printf("Exported archive to %s\n", args[0])
		return nil
	},
}

var importCmd = &cobra.Command{
	Use:   "import [directory]",
	Short: "Import a previously exported archive",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := maintenanceService.Import(cmd.Context(), args[0]); err != nil {
			return err
		}
		cmd.Printf("Imported archive from %s\n", args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd, importCmd)
}
