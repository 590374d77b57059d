package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var editCmd = &cobra.Command{
	Use:   "edit",
	Short: "Apply batch edits to documents",
	Long: `Batch mutations over a selection of documents. An invalid document
id anywhere in the selection rejects the whole batch.`,
}

var editSetCorrespondentCmd = &cobra.Command{
	Use:   "set-correspondent [correspondent-id|none] [document-id...]",
	Short: "Assign or clear the correspondent of several documents",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		value, err := parseLabelArg(args[0])
		if err != nil {
			return err
		}
		ids, err := parseDocumentIDs(args[1:])
		if err != nil {
			return err
		}
		if err := bulkService.SetCorrespondent(cmd.Context(), ids, value); err != nil {
			return err
		}
		cmd.Printf("Updated %d documents\n", len(ids))
		return nil
	},
}

var editSetTypeCmd = &cobra.Command{
	Use:   "set-type [document-type-id|none] [document-id...]",
	Short: "Assign or clear the document type of several documents",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		value, err := parseLabelArg(args[0])
		if err != nil {
			return err
		}
		ids, err := parseDocumentIDs(args[1:])
		if err != nil {
			return err
		}
		if err := bulkService.SetDocumentType(cmd.Context(), ids, value); err != nil {
			return err
		}
		cmd.Printf("Updated %d documents\n", len(ids))
		return nil
	},
}

var editAddTagCmd = &cobra.Command{
	Use:   "add-tag [tag-id] [document-id...]",
	Short: "Add a tag to several documents",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		tagID, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid tag id %q", args[0])
		}
		ids, err := parseDocumentIDs(args[1:])
		if err != nil {
			return err
		}
		if err := bulkService.AddTag(cmd.Context(), ids, tagID); err != nil {
			return err
		}
		cmd.Printf("Updated %d documents\n", len(ids))
		return nil
	},
}

var editRemoveTagCmd = &cobra.Command{
	Use:   "remove-tag [tag-id] [document-id...]",
	Short: "Remove a tag from several documents",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		tagID, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid tag id %q", args[0])
		}
		ids, err := parseDocumentIDs(args[1:])
		if err != nil {
			return err
		}
		if err := bulkService.RemoveTag(cmd.Context(), ids, tagID); err != nil {
			return err
		}
		cmd.Printf("Updated %d documents\n", len(ids))
		return nil
	},
}

var editDeleteCmd = &cobra.Command{
	Use:   "delete [document-id...]",
	Short: "Delete documents, their files and index entries",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ids, err := parseDocumentIDs(args)
		if err != nil {
			return err
		}
		if err := bulkService.Delete(cmd.Context(), ids); err != nil {
			return err
		}
		cmd.Printf("Deleted %d documents\n", len(ids))
		return nil
	},
}

func init() {
	editCmd.AddCommand(editSetCorrespondentCmd, editSetTypeCmd, editAddTagCmd, editRemoveTagCmd, editDeleteCmd)
	rootCmd.AddCommand(editCmd)
}

// parseLabelArg reads a label id, with "none" clearing the assignment.
func parseLabelArg(arg string) (*int64, error) {
	if arg == "none" {
		return nil, nil
	}
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid id %q, want a number or \"none\"", arg)
	}
	return &id, nil
}

func parseDocumentIDs(args []string) ([]int64, error) {
	ids := make([]int64, 0, len(args))
	for _, arg := range args {
		id, err := strconv.ParseInt(arg, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid document id %q", arg)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
