package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newTagsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tags",
		Short: "List and manage task tags",
	}
	cmd.AddCommand(newTagsListCmd())
	cmd.AddCommand(newTagsGetCmd())
	cmd.AddCommand(newTagsCreateCmd())
	cmd.AddCommand(newTagsUpdateCmd())
	cmd.AddCommand(newTagsDeleteCmd())
	return cmd
}

func newTagsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all task tags",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newAppContext()
			if err != nil {
				return err
			}

			tags, err := app.client.ListTags(cmd.Context())
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(tags)
			}
			for _, tag := range tags {
				line := tag.Name
				if tag.Color != "" {
					line += "  (" + tag.Color + ")"
				}
				fmt.Printf("%s\n  id: %s\n", line, tag.ID)
			}
			return nil
		},
	}
}

func newTagsGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <tag-id>",
		Short: "Show a single task tag",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newAppContext()
			if err != nil {
				return err
			}

			tag, err := app.client.GetTag(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(tag)
			}
			fmt.Printf("%s\n  id: %s\n", tag.Name, tag.ID)
			if tag.Color != "" {
				fmt.Printf("  color: %s\n", tag.Color)
			}
			return nil
		},
	}
}

func newTagsCreateCmd() *cobra.Command {
	var color string

	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a task tag",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newAppContext()
			if err != nil {
				return err
			}

			tagData := map[string]any{"name": args[0]}
			if color != "" {
				tagData["color"] = color
			}
			tag, err := app.client.CreateTag(cmd.Context(), tagData)
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(tag)
			}
			if tag != nil {
				fmt.Printf("Created tag %s\n", tag.ID)
			} else {
				fmt.Println("Created tag")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&color, "color", "", "Tag color (hex)")
	return cmd
}

func newTagsUpdateCmd() *cobra.Command {
	var (
		name  string
		color string
	)

	cmd := &cobra.Command{
		Use:   "update <tag-id>",
		Short: "Update a task tag",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newAppContext()
			if err != nil {
				return err
			}

			tagData := map[string]any{"id": args[0]}
			if name != "" {
				tagData["name"] = name
			}
			if color != "" {
				tagData["color"] = color
			}
			tag, err := app.client.UpdateTag(cmd.Context(), tagData)
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(tag)
			}
			fmt.Println("Updated tag")
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "New name")
	cmd.Flags().StringVar(&color, "color", "", "New color (hex)")
	return cmd
}

func newTagsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <tag-id>",
		Short: "Delete a task tag",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newAppContext()
			if err != nil {
				return err
			}
			if err := app.client.DeleteTag(cmd.Context(), args[0]); err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(map[string]string{"deleted": args[0]})
			}
			fmt.Println("Deleted tag")
			return nil
		},
	}
}
